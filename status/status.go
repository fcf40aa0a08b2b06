// Package status exposes the progress of a running engine over a Connect RPC endpoint.
package status

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"uk.ac.bris.cs/golengine/gol"
)

// GetStatusProcedure is the full procedure name served by NewHandler.
const GetStatusProcedure = "/gol.v1.StatusService/GetStatus"

// Pending is reported before the engine has loaded its input.
const Pending = "Pending"

// Status is a snapshot of one run.
type Status struct {
	RunID   string
	State   string
	Turn    int
	Alive   int
	Started time.Time
}

func (s Status) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"run_id":  s.RunID,
		"state":   s.State,
		"turn":    s.Turn,
		"alive":   s.Alive,
		"started": s.Started.UTC().Format(time.RFC3339Nano),
	})
}

func fromStruct(msg *structpb.Struct) (Status, error) {
	fields := msg.GetFields()
	started, err := time.Parse(time.RFC3339Nano, fields["started"].GetStringValue())
	if err != nil {
		return Status{}, fmt.Errorf("bad start time: %w", err)
	}
	return Status{
		RunID:   fields["run_id"].GetStringValue(),
		State:   fields["state"].GetStringValue(),
		Turn:    int(fields["turn"].GetNumberValue()),
		Alive:   int(fields["alive"].GetNumberValue()),
		Started: started,
	}, nil
}

// Tracker accumulates the status of a run from its progress reports and events.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	status Status
}

func NewTracker(runID uuid.UUID) *Tracker {
	return &Tracker{status: Status{
		RunID:   runID.String(),
		State:   Pending,
		Started: time.Now(),
	}}
}

// Update has the signature of gol.ProgressFunc.
func (t *Tracker) Update(completedTurns, alive int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Turn = completedTurns
	t.status.Alive = alive
}

// Observe records state changes and the final alive count.
func (t *Tracker) Observe(event gol.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e := event.(type) {
	case gol.StateChange:
		t.status.State = e.NewState.String()
		t.status.Turn = e.CompletedTurns
	case gol.FinalTurnComplete:
		t.status.Turn = e.CompletedTurns
		t.status.Alive = len(e.Alive)
	}
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// NewHandler returns the path and handler to mount on a mux.
func NewHandler(tracker *Tracker, opts ...connect.HandlerOption) (string, http.Handler) {
	handler := connect.NewUnaryHandler(
		GetStatusProcedure,
		func(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
			msg, err := tracker.Status().toStruct()
			if err != nil {
				return nil, connect.NewError(connect.CodeInternal, err)
			}
			return connect.NewResponse(msg), nil
		},
		opts...,
	)
	return GetStatusProcedure, handler
}

// Client calls a status endpoint.
type Client struct {
	getStatus *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewClient connects to the server at baseURL, e.g. "http://localhost:8030".
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		getStatus: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
	}
}

func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	res, err := c.getStatus.CallUnary(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return Status{}, err
	}
	return fromStruct(res.Msg)
}
