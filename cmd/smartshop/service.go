package main

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	cart "github.com/bearuzish-arch/SmartShop/cart/logic"
	"github.com/bearuzish-arch/SmartShop/catalog"
	checkout "github.com/bearuzish-arch/SmartShop/checkout/logic"
	"github.com/bearuzish-arch/SmartShop/metrics"
	pricing "github.com/bearuzish-arch/SmartShop/pricing/logic"
	"github.com/bearuzish-arch/SmartShop/session"
	"github.com/bearuzish-arch/SmartShop/shop"
)

const serviceName = "smartshop.v1.Shop"

// ShopServer is the handler type of the smartshop.v1.Shop service. Requests
// and responses are google.protobuf.Struct documents.
type ShopServer interface {
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListReviews(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangeQuantity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyCoupon(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddMoney(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Checkout(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type shopMethod func(ShopServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call shopMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ShopServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ShopServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ShopServiceDesc describes smartshop.v1.Shop.
var ShopServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShopServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListProducts", ShopServer.ListProducts),
		unary("ListReviews", ShopServer.ListReviews),
		unary("AddProduct", ShopServer.AddProduct),
		unary("AddItem", ShopServer.AddItem),
		unary("ChangeQuantity", ShopServer.ChangeQuantity),
		unary("RemoveItem", ShopServer.RemoveItem),
		unary("ApplyCoupon", ShopServer.ApplyCoupon),
		unary("GetCart", ShopServer.GetCart),
		unary("AddMoney", ShopServer.AddMoney),
		unary("ResetBalance", ShopServer.ResetBalance),
		unary("Checkout", ShopServer.Checkout),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smartshop/v1/shop.proto",
}

func RegisterShopServer(s grpc.ServiceRegistrar, srv ShopServer) {
	s.RegisterService(&ShopServiceDesc, srv)
}

// server adapts a Session to the gRPC surface.
type server struct {
	session *session.Session
	catalog *catalog.Live
}

func (s *server) ListProducts(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	products := s.catalog.Catalog().Search(stringField(req, "query"))
	products = catalog.Window(catalog.Sort(products, stringField(req, "sort")))

	list := make([]any, 0, len(products))
	for _, p := range products {
		entry := map[string]any{
			"id":    p.ID,
			"title": p.Title,
			"price": p.Price.String(),
			"image": p.Image,
		}
		if p.Rating != nil {
			entry["rating"] = *p.Rating
		}
		list = append(list, entry)
	}
	return structpb.NewStruct(map[string]any{"products": list})
}

func (s *server) ListReviews(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	reviews := s.catalog.Reviews()
	list := make([]any, 0, len(reviews))
	for _, r := range reviews {
		list = append(list, map[string]any{
			"name":    r.Name,
			"date":    r.Date,
			"rating":  r.Rating,
			"comment": r.Comment,
		})
	}
	return structpb.NewStruct(map[string]any{"reviews": list})
}

func (s *server) AddProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "product_id")
	if err := shop.RequireNotEmpty(id, ErrMsgProductIDRequired); err != nil {
		return nil, shop.MapCommandError(err)
	}
	if err := s.session.AddProduct(ctx, id); err != nil {
		return nil, mapError(err)
	}
	return s.cartView(), nil
}

func (s *server) AddItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "product_id")
	if err := shop.RequireNotEmpty(id, ErrMsgProductIDRequired); err != nil {
		return nil, shop.MapCommandError(err)
	}
	price, err := decimal.NewFromString(stringField(req, "unit_price"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, ErrMsgUnitPriceInvalid)
	}
	if err := shop.RequireNonNegative(price, ErrMsgUnitPriceInvalid); err != nil {
		return nil, shop.MapCommandError(err)
	}
	qty, err := intField(req, "quantity", ErrMsgQuantityInvalid)
	if err != nil {
		return nil, shop.MapCommandError(err)
	}
	if qty < 0 {
		return nil, shop.MapCommandError(shop.NewInvalidArgument(ErrMsgQuantityInvalid))
	}
	if qty == 0 {
		qty = 1
	}
	if err := s.session.AddItem(ctx, id, stringField(req, "title"), price, qty); err != nil {
		return nil, mapError(err)
	}
	return s.cartView(), nil
}

func (s *server) ChangeQuantity(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	delta, err := intField(req, "delta", ErrMsgDeltaInvalid)
	if err != nil {
		return nil, shop.MapCommandError(err)
	}
	s.session.ChangeQuantity(stringField(req, "product_id"), delta)
	return s.cartView(), nil
}

func (s *server) RemoveItem(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.session.RemoveItem(stringField(req, "product_id"))
	return s.cartView(), nil
}

func (s *server) ApplyCoupon(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.session.ApplyCoupon(stringField(req, "code")); err != nil {
		return nil, mapError(err)
	}
	return s.cartView(), nil
}

func (s *server) GetCart(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return s.cartView(), nil
}

func (s *server) AddMoney(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.session.AddMoney(ctx); err != nil {
		return nil, mapError(err)
	}
	return s.cartView(), nil
}

func (s *server) ResetBalance(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.session.ResetBalance(ctx); err != nil {
		return nil, mapError(err)
	}
	return s.cartView(), nil
}

func (s *server) Checkout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	receipt, err := s.session.Checkout(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return receiptView(receipt), nil
}

// Error message constants for request validation.
const (
	ErrMsgProductIDRequired = "product_id is required"
	ErrMsgUnitPriceInvalid  = "unit_price must be a non-negative decimal"
	ErrMsgQuantityInvalid   = "quantity must be a positive whole number within range"
	ErrMsgDeltaInvalid      = "delta must be a whole number within range"
)

// maxQuantityStep bounds quantity and delta fields.
const maxQuantityStep = math.MaxInt32

func mapError(err error) error {
	if errors.Is(err, catalog.ErrProductNotFound) {
		return status.Error(codes.NotFound, err.Error())
	}
	return shop.MapCommandError(err)
}

func (s *server) cartView() *structpb.Struct {
	v := s.session.View()
	active := ""
	if v.Coupon != nil {
		active = v.Coupon.Code
	}
	view, _ := structpb.NewStruct(map[string]any{
		"items":           itemsView(v.Cart),
		"totals":          totalsView(v.Totals),
		"coupon":          active,
		"balance":         v.Balance.String(),
		"balance_warning": v.Warning,
	})
	return view
}

func itemsView(c cart.Cart) []any {
	items := c.Items()
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"product_id": item.ProductID,
			"title":      item.Title,
			"unit_price": item.UnitPrice.String(),
			"quantity":   item.Quantity,
			"line_total": item.LineTotal().String(),
		})
	}
	return out
}

func totalsView(t pricing.Totals) map[string]any {
	r := t.Rounded()
	return map[string]any{
		"subtotal": t.Subtotal.String(),
		"delivery": t.Delivery.String(),
		"shipping": t.Shipping.String(),
		"discount": t.Discount.String(),
		"total":    t.Total.String(),
		"display": map[string]any{
			"subtotal": r.Subtotal,
			"delivery": r.Delivery,
			"shipping": r.Shipping,
			"discount": r.Discount,
			"total":    r.Total,
		},
	}
}

func receiptView(r *checkout.Receipt) *structpb.Struct {
	view, _ := structpb.NewStruct(map[string]any{
		"receipt_id":     r.ID,
		"amount_charged": r.AmountCharged.String(),
		"totals":         totalsView(r.Totals),
		"items":          itemsView(cart.NewCart(r.Items...)),
		"coupon":         r.CouponCode,
		"balance_after":  r.BalanceAfter.String(),
		"checked_out_at": r.CheckedOutAt.Format(time.RFC3339Nano),
	})
	return view
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// intField reads an optional whole-number field. Fractions, non-numbers and
// values beyond maxQuantityStep are rejected with msg.
func intField(s *structpb.Struct, key, msg string) (int, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, shop.NewInvalidArgument(msg)
	}
	f := n.NumberValue
	if math.IsNaN(f) || math.Trunc(f) != f || math.Abs(f) > maxQuantityStep {
		return 0, shop.NewInvalidArgument(msg)
	}
	return int(f), nil
}

// latencyInterceptor records handler latency by method and status code.
func latencyInterceptor(m *metrics.ShopMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.ObserveLatency(info.FullMethod, status.Code(err).String(), float64(time.Since(start).Microseconds())/1000)
		return resp, err
	}
}
