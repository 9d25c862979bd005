package main

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// newGateway exposes every Shop method as POST /v1/shop/{method}, with a
// JSON body forwarded to the gRPC service over conn.
func newGateway(ctx context.Context, conn grpc.ClientConnInterface) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()

	known := make(map[string]bool, len(ShopServiceDesc.Methods))
	for _, m := range ShopServiceDesc.Methods {
		known[m.MethodName] = true
	}

	err := mux.HandlePath(http.MethodPost, "/v1/shop/{method}", func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		inbound, outbound := runtime.MarshalerForRequest(mux, r)
		method := params["method"]
		if !known[method] {
			runtime.HTTPError(ctx, mux, outbound, w, r, status.Errorf(codes.NotFound, "unknown method %s", method))
			return
		}

		in := new(structpb.Struct)
		if err := inbound.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
			runtime.HTTPError(ctx, mux, outbound, w, r, status.Errorf(codes.InvalidArgument, "decode body: %v", err))
			return
		}

		out := new(structpb.Struct)
		if err := conn.Invoke(r.Context(), "/"+serviceName+"/"+method, in, out); err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		body, err := outbound.Marshal(out)
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}
		w.Header().Set("Content-Type", outbound.ContentType(out))
		_, _ = w.Write(body)
	})
	if err != nil {
		return nil, err
	}
	return mux, nil
}
