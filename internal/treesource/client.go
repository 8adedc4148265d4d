// Package treesource fetches decision tree envelopes over gRPC and serves them from a
// tree store.
package treesource

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region client-struct
// Client wraps the gRPC connection to a tree service.
type Client struct {
	conn   *grpc.ClientConn
	client ServiceClient
}

// #endregion client-struct

// #region constructor
// NewClient connects to the tree service at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{
		conn:   conn,
		client: NewServiceClient(conn),
	}, nil
}

// NewClientWithService creates a Client with an injected service implementation.
func NewClientWithService(svc ServiceClient) *Client {
	return &Client{client: svc}
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region fetch
// Fetch retrieves the envelope an agent used at timestamp (unix seconds, 0 for the
// latest). It returns the parsed envelope and its JSON encoding.
func (c *Client) Fetch(ctx context.Context, agentID string, timestamp int64) (*tree.Envelope, []byte, error) {
	req, err := structpb.NewStruct(map[string]any{
		"agent_id":  agentID,
		"timestamp": float64(timestamp),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.GetDecisionTree(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("get decision tree rpc: %w", err)
	}

	data, err := json.Marshal(resp.AsMap())
	if err != nil {
		return nil, nil, fmt.Errorf("encode envelope: %w", err)
	}
	env, err := tree.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return env, data, nil
}

// #endregion fetch
