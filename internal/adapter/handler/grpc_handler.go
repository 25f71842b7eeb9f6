package handler

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/stock-count/internal/core/domain"
	"github.com/rl1809/stock-count/internal/core/service"
)

const CountServiceName = "stockcount.v1.InventoryCountService"

// Messages travel as google.protobuf.Struct with the same field names as the
// HTTP JSON bodies.
type (
	CountIDRequest struct {
		CountID int64 `json:"count_id"`
	}

	GRPCAddItemRequest struct {
		CountID       int64 `json:"count_id"`
		ProductID     int64 `json:"product_id"`
		PackagesCount int   `json:"packages_count"`
	}

	ListCountsRequest struct {
		WarehouseID int64  `json:"warehouse_id"`
		Status      string `json:"status"`
	}

	ListCountsResponse struct {
		Counts []CountResponse `json:"counts"`
	}

	WarehousesResponse struct {
		Warehouses []WarehouseResponse `json:"warehouses"`
	}
)

type countServiceServer interface {
	CreateCount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseCount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AccessibleWarehouses(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type GRPCHandler struct {
	countService *service.CountService
	authn        *Authenticator
}

var _ countServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(countService *service.CountService, authn *Authenticator) *GRPCHandler {
	return &GRPCHandler{countService: countService, authn: authn}
}

// Register attaches the handler to s.
func (h *GRPCHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&countServiceDesc, h)
}

func (h *GRPCHandler) CreateCount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req CreateCountRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	detail, err := h.countService.CreateCount(ctx, actor, service.NewCount{
		Name:        req.Name,
		CutOffDate:  req.CutOffDate,
		WarehouseID: req.WarehouseID,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(toCountResponse(detail, false))
}

func (h *GRPCHandler) AddItem(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req GRPCAddItemRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	item, err := h.countService.AddItem(ctx, actor, req.CountID, req.ProductID, req.PackagesCount)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(toItemResponse(*item))
}

func (h *GRPCHandler) CloseCount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req CountIDRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	detail, err := h.countService.CloseCount(ctx, actor, req.CountID)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(toCountResponse(detail, false))
}

func (h *GRPCHandler) ListCounts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req ListCountsRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	filter := domain.CountFilter{WarehouseID: req.WarehouseID}
	if req.Status != "" {
		if filter.Status, err = domain.ParseCountStatus(req.Status); err != nil {
			return nil, grpcError(err)
		}
	}

	details, err := h.countService.ListCounts(ctx, actor, filter)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(ListCountsResponse{Counts: toCountResponses(details)})
}

func (h *GRPCHandler) GetCount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	var req CountIDRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, err
	}

	detail, err := h.countService.GetCountDetail(ctx, actor, req.CountID)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(toCountResponse(detail, true))
}

func (h *GRPCHandler) AccessibleWarehouses(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.actor(ctx)
	if err != nil {
		return nil, grpcError(err)
	}

	warehouses, err := h.countService.AccessibleWarehouses(ctx, actor)
	if err != nil {
		return nil, grpcError(err)
	}
	return encodeStruct(WarehousesResponse{Warehouses: toWarehouseResponses(warehouses)})
}

func (h *GRPCHandler) actor(ctx context.Context) (domain.User, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var header string
	if values := md.Get("authorization"); len(values) > 0 {
		header = values[0]
	}
	return h.authn.Authenticate(ctx, header)
}

// UnaryLogger logs every unary call with its status code.
func UnaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		switch code {
		case codes.OK:
			logger.Info("rpc", fields...)
		case codes.Internal, codes.Unknown:
			logger.Error("rpc", append(fields, zap.Error(err))...)
		default:
			logger.Warn("rpc", fields...)
		}
		return resp, err
	}
}

func decodeStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encodeStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func unaryHandler(call func(countServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error), name string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(countServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: MethodName(name),
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(countServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}

var countServiceDesc = grpc.ServiceDesc{
	ServiceName: CountServiceName,
	HandlerType: (*countServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateCount", Handler: unaryHandler(countServiceServer.CreateCount, "CreateCount")},
		{MethodName: "AddItem", Handler: unaryHandler(countServiceServer.AddItem, "AddItem")},
		{MethodName: "CloseCount", Handler: unaryHandler(countServiceServer.CloseCount, "CloseCount")},
		{MethodName: "ListCounts", Handler: unaryHandler(countServiceServer.ListCounts, "ListCounts")},
		{MethodName: "GetCount", Handler: unaryHandler(countServiceServer.GetCount, "GetCount")},
		{MethodName: "AccessibleWarehouses", Handler: unaryHandler(countServiceServer.AccessibleWarehouses, "AccessibleWarehouses")},
	},
	Metadata: "stockcount/v1/inventory_count.proto",
}

// MethodName returns the full gRPC method path, e.g. for conn.Invoke.
func MethodName(name string) string {
	return "/" + CountServiceName + "/" + name
}
