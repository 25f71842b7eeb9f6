package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type grpcClient struct {
	t    *testing.T
	conn *grpc.ClientConn
}

func newGRPCClient(t *testing.T, f *fixture) *grpcClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(zap.NewNop())))
	NewGRPCHandler(f.service, f.authn).Register(server)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &grpcClient{t: t, conn: conn}
}

func (c *grpcClient) call(method string, userID int64, req map[string]any) (*structpb.Struct, error) {
	c.t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(c.t, err)

	ctx := c.t.Context()
	if userID != 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+signToken(c.t, userID))
	}

	out := &structpb.Struct{}
	err = c.conn.Invoke(ctx, MethodName(method), in, out)
	return out, err
}

func number(s *structpb.Struct, field string) int64 {
	return int64(s.GetFields()[field].GetNumberValue())
}

func TestGRPC_CountLifecycle(t *testing.T) {
	c := newGRPCClient(t, newFixture(t))

	created, err := c.call("CreateCount", bobID, map[string]any{
		"name":         "Cierre trimestral",
		"cut_off_date": "2024-06-30",
		"warehouse_id": centralID,
	})
	require.NoError(t, err)
	assert.Equal(t, "in_progress", created.GetFields()["status"].GetStringValue())
	assert.Equal(t, "Central", created.GetFields()["warehouse_name"].GetStringValue())
	countID := number(created, "id")

	item, err := c.call("AddItem", bobID, map[string]any{
		"count_id":       countID,
		"product_id":     boxProductID,
		"packages_count": 2,
		"quantity":       1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(24), number(item, "quantity"))

	_, err = c.call("CloseCount", bobID, map[string]any{"count_id": countID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	closed, err := c.call("CloseCount", adminID, map[string]any{"count_id": countID})
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.GetFields()["status"].GetStringValue())
	assert.True(t, closed.GetFields()["read_only"].GetBoolValue())

	_, err = c.call("AddItem", adminID, map[string]any{"count_id": countID, "product_id": boxProductID, "packages_count": 1})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	detail, err := c.call("GetCount", bobID, map[string]any{"count_id": countID})
	require.NoError(t, err)
	assert.Len(t, detail.GetFields()["items"].GetListValue().GetValues(), 1)
	assert.Equal(t, int64(1), number(detail, "items_count"))
}

func TestGRPC_Errors(t *testing.T) {
	c := newGRPCClient(t, newFixture(t))

	tests := []struct {
		name   string
		method string
		userID int64
		req    map[string]any
		code   codes.Code
	}{
		{"no token", "AccessibleWarehouses", 0, nil, codes.Unauthenticated},
		{"unknown count", "GetCount", adminID, map[string]any{"count_id": 999}, codes.NotFound},
		{"unassigned warehouse", "CreateCount", carolID, map[string]any{
			"name": "X", "cut_off_date": "2024-01-31", "warehouse_id": centralID,
		}, codes.PermissionDenied},
		{"bad date", "CreateCount", adminID, map[string]any{
			"name": "X", "cut_off_date": "yesterday", "warehouse_id": centralID,
		}, codes.InvalidArgument},
		{"fractional packages", "AddItem", adminID, map[string]any{
			"count_id": 1, "product_id": boxProductID, "packages_count": 1.5,
		}, codes.InvalidArgument},
		{"bad status filter", "ListCounts", adminID, map[string]any{"status": "archived"}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.call(tt.method, tt.userID, tt.req)
			assert.Equal(t, tt.code, status.Code(err), err)
		})
	}
}

func TestGRPC_ListCountsAndWarehouses(t *testing.T) {
	c := newGRPCClient(t, newFixture(t))

	for _, wid := range []int64{centralID, northID} {
		_, err := c.call("CreateCount", adminID, map[string]any{
			"name": "Conteo", "cut_off_date": "2024-01-31", "warehouse_id": wid,
		})
		require.NoError(t, err)
	}

	all, err := c.call("ListCounts", adminID, nil)
	require.NoError(t, err)
	assert.Len(t, all.GetFields()["counts"].GetListValue().GetValues(), 2)

	mine, err := c.call("ListCounts", bobID, nil)
	require.NoError(t, err)
	counts := mine.GetFields()["counts"].GetListValue().GetValues()
	require.Len(t, counts, 1)
	assert.Equal(t, float64(centralID), counts[0].GetStructValue().GetFields()["warehouse_id"].GetNumberValue())

	warehouses, err := c.call("AccessibleWarehouses", carolID, nil)
	require.NoError(t, err)
	assert.Empty(t, warehouses.GetFields()["warehouses"].GetListValue().GetValues())
}
