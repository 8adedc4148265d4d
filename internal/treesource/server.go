package treesource

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/treedecide/internal/store"
)

// Versions is the part of the tree store the server reads from.
type Versions interface {
	Active(agentID string) (store.TreeVersion, error)
	VersionAt(agentID string, at time.Time) (store.TreeVersion, error)
}

// StoreServer serves stored envelopes. A zero timestamp selects the active version,
// any other the newest version created at or before it.
type StoreServer struct {
	Versions Versions
}

func (s *StoreServer) GetDecisionTree(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	agentID := fields["agent_id"].GetStringValue()
	if agentID == "" {
		return nil, status.Error(codes.InvalidArgument, "agent_id is required")
	}
	ts := int64(fields["timestamp"].GetNumberValue())

	var rec store.TreeVersion
	var err error
	if ts == 0 {
		rec, err = s.Versions.Active(agentID)
	} else {
		rec, err = s.Versions.VersionAt(agentID, time.Unix(ts, 0))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "no decision tree for agent %s", agentID)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "load decision tree: %v", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(rec.Envelope, &envelope); err != nil {
		return nil, status.Errorf(codes.Internal, "decode envelope %s: %v", rec.VersionID, err)
	}
	out, err := structpb.NewStruct(envelope)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode envelope %s: %v", rec.VersionID, err)
	}
	return out, nil
}
