// Package grpcweb lets browsers reach the gRPC services over HTTP/1.1. Each
// gRPC-Web call is unwrapped and replayed against the native server; message
// bodies pass through untouched, so any method the server registers is
// reachable without a per-method table.
package grpcweb

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"home-services-api/internal/middleware"
	"home-services-api/internal/rpc"
)

const (
	contentType = "application/grpc-web+" + rpc.CodecName
	maxBody     = 4 << 20

	dataFrame    byte = 0x00
	trailerFrame byte = 0x80
)

// Bridge translates gRPC-Web (browser HTTP/1.1) to native gRPC.
type Bridge struct {
	conn *grpc.ClientConn
	log  logrus.FieldLogger
}

// New connects to the gRPC server at target (e.g. "localhost:50051"). Extra
// dial options are applied after the default insecure transport.
func New(target string, log logrus.FieldLogger, opts ...grpc.DialOption) (*Bridge, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return &Bridge{conn: conn, log: log}, nil
}

func (b *Bridge) Close() error { return b.conn.Close() }

// Handler returns an http.Handler that translates gRPC-Web to gRPC.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers",
			"Content-Type, X-Grpc-Web, X-User-Agent, Authorization, x-grpc-web")
		h.Set("Access-Control-Expose-Headers",
			"Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin, grpc-status, grpc-message")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// grpc-web-text (base64 bodies) is not supported
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(ct, "application/grpc-web") || strings.HasPrefix(ct, "application/grpc-web-text") {
			http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
			return
		}

		b.forward(w, r)
	})
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := b.log.WithField("method", r.URL.Path)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeStatus(w, status.New(codes.InvalidArgument, "read body failed"))
		return
	}
	payload, err := unframe(body)
	if err != nil {
		writeStatus(w, status.New(codes.InvalidArgument, err.Error()))
		return
	}

	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	// every browser shares this connection; pass the real client on
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		md.Set(middleware.ForwardedForKey, host)
	} else if r.RemoteAddr != "" {
		md.Set(middleware.ForwardedForKey, r.RemoteAddr)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		st := status.Convert(err)
		log.WithFields(logrus.Fields{
			"code":     st.Code().String(),
			"duration": time.Since(start).String(),
		}).Debug("grpc-web call failed")
		writeStatus(w, st)
		return
	}
	log.WithField("duration", time.Since(start).String()).Debug("grpc-web call")
	writeSuccess(w, resp.data)
}

// unframe extracts the single message of a unary request.
// frame: 1-byte flag + 4-byte big-endian length + message
func unframe(body []byte) ([]byte, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("body too short")
	}
	if body[0] != dataFrame {
		return nil, fmt.Errorf("unsupported frame flag %#x", body[0])
	}
	n := binary.BigEndian.Uint32(body[1:5])
	if uint64(n)+5 > uint64(len(body)) {
		return nil, fmt.Errorf("incomplete frame")
	}
	return body[5 : 5+n], nil
}

// rawMsg wraps an encoded message.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through without decoding. It reports the JSON codec's
// name so the server picks the matching content-subtype.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return rpc.CodecName }

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func writeStatus(w http.ResponseWriter, st *status.Status) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)

	var sb strings.Builder
	fmt.Fprintf(&sb, "grpc-status:%d\r\n", st.Code())
	if msg := st.Message(); msg != "" {
		fmt.Fprintf(&sb, "grpc-message:%s\r\n", strings.NewReplacer("\r", " ", "\n", " ").Replace(msg))
	}
	if len(st.Details()) > 0 {
		if raw, err := proto.Marshal(st.Proto()); err == nil {
			fmt.Fprintf(&sb, "grpc-status-details-bin:%s\r\n", base64.RawStdEncoding.EncodeToString(raw))
		}
	}
	w.Write(frame(trailerFrame, []byte(sb.String())))
}

func writeSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(frame(dataFrame, data))
	w.Write(frame(trailerFrame, []byte("grpc-status:0\r\n")))
}
