package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfagnish/mergington-activities/internal/catalog"
)

// Client calls the ActivityCatalog service. Errors for unknown activities
// and roster conflicts are translated back to the catalog sentinel errors.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client for the service at addr. Extra dial options are
// appended after the insecure transport credentials.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ListActivities returns the whole catalog.
func (c *Client) ListActivities(ctx context.Context) (map[string]catalog.Activity, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, methodList, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}

	activities := make(map[string]catalog.Activity, len(out.GetFields()))
	for name, v := range out.GetFields() {
		activities[name] = structToActivity(name, v.GetStructValue())
	}
	return activities, nil
}

// Signup adds email to the named activity and returns the acknowledgment.
func (c *Client) Signup(ctx context.Context, activity, email string) (string, error) {
	return c.roster(ctx, methodSignup, activity, email)
}

// Unregister removes email from the named activity.
func (c *Client) Unregister(ctx context.Context, activity, email string) (string, error) {
	return c.roster(ctx, methodUnregister, activity, email)
}

func (c *Client) roster(ctx context.Context, method, activity, email string) (string, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"activity": structpb.NewStringValue(activity),
		"email":    structpb.NewStringValue(email),
	}}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return "", fromStatus(err)
	}
	return out.GetFields()["message"].GetStringValue(), nil
}

func structToActivity(name string, s *structpb.Struct) catalog.Activity {
	fields := s.GetFields()
	values := fields["participants"].GetListValue().GetValues()
	participants := make([]string, 0, len(values))
	for _, v := range values {
		participants = append(participants, v.GetStringValue())
	}
	return catalog.Activity{
		Name:            name,
		Description:     fields["description"].GetStringValue(),
		Schedule:        fields["schedule"].GetStringValue(),
		MaxParticipants: int(fields["max_participants"].GetNumberValue()),
		Participants:    participants,
	}
}

func fromStatus(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return catalog.ErrActivityNotFound
	case codes.AlreadyExists:
		return catalog.ErrAlreadySignedUp
	case codes.FailedPrecondition:
		return catalog.ErrNotSignedUp
	default:
		return err
	}
}
