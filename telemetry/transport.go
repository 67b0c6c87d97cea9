package telemetry

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptrace"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/semconv"
	"go.opentelemetry.io/otel/trace"
)

// Transport wraps next so that every outbound request gets a client span,
// with child spans for the connection, DNS, TLS and time to first byte
// stages. A nil next means http.DefaultTransport.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &tracingTransport{
		next:   next,
		tracer: otel.Tracer(InstrumentationName),
	}
}

type tracingTransport struct {
	next   http.RoundTripper
	tracer trace.Tracer
}

func (t *tracingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(r.Context(), "goto_api."+r.Method, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(semconv.HTTPClientAttributesFromHTTPRequest(r)...)
	span.SetAttributes(semconv.NetAttributesFromHTTPRequest("tcp", r)...)

	ctx = httptrace.WithClientTrace(ctx, newClientTrace(ctx, t.tracer))
	resp, err := t.next.RoundTrip(r.WithContext(ctx))
	if err != nil {
		span.SetAttributes(attribute.String("error", err.Error()))
		return resp, err
	}

	span.SetAttributes(semconv.HTTPAttributesFromHTTPStatusCode(resp.StatusCode)...)
	span.SetStatus(semconv.SpanStatusFromHTTPStatusCode(resp.StatusCode))
	return resp, nil
}

func newClientTrace(ctx context.Context, tracer trace.Tracer) *httptrace.ClientTrace {
	s := &stageSpans{ctx: ctx, tracer: tracer}
	return &httptrace.ClientTrace{
		GetConn:              s.GetConn,
		GotConn:              s.GotConn,
		DNSStart:             s.DNSStart,
		DNSDone:              s.DNSDone,
		TLSHandshakeStart:    s.TLSHandshakeStart,
		TLSHandshakeDone:     s.TLSHandshakeDone,
		WroteRequest:         s.WroteRequest,
		GotFirstResponseByte: s.GotFirstResponseByte,
	}
}

// stageSpans holds the open span of each request stage. A stage that never
// started has a nil span, so every end callback checks first.
type stageSpans struct {
	ctx     context.Context
	tracer  trace.Tracer
	connect trace.Span
	dns     trace.Span
	tls     trace.Span
	ttfb    trace.Span
}

func (s *stageSpans) start(name string) trace.Span {
	_, span := s.tracer.Start(s.ctx, name)
	return span
}

// GetConn is called even when an idle connection is reused.
func (s *stageSpans) GetConn(hostPort string) {
	s.connect = s.start("net.connect")
	if host, port, err := net.SplitHostPort(hostPort); err == nil {
		s.connect.SetAttributes(
			semconv.NetPeerNameKey.String(host),
			attribute.String(string(semconv.NetPeerPortKey), port),
		)
	}
}

func (s *stageSpans) GotConn(info httptrace.GotConnInfo) {
	if s.connect == nil {
		return
	}
	s.connect.SetAttributes(
		attribute.Bool("net.conn.reused", info.Reused),
		attribute.Bool("net.conn.was_idle", info.WasIdle),
	)
	s.connect.End()
}

func (s *stageSpans) DNSStart(info httptrace.DNSStartInfo) {
	s.dns = s.start("net.dns_lookup")
	s.dns.SetAttributes(semconv.NetPeerNameKey.String(info.Host))
}

func (s *stageSpans) DNSDone(info httptrace.DNSDoneInfo) {
	if s.dns == nil {
		return
	}
	if info.Err != nil {
		s.dns.SetAttributes(attribute.String("error", info.Err.Error()))
	}
	s.dns.End()
}

func (s *stageSpans) TLSHandshakeStart() {
	s.tls = s.start("net.tls_handshake")
}

func (s *stageSpans) TLSHandshakeDone(state tls.ConnectionState, err error) {
	if s.tls == nil {
		return
	}
	s.tls.SetAttributes(attribute.Bool("net.conn.tls_did_resume", state.DidResume))
	if err != nil {
		s.tls.SetAttributes(attribute.String("error", err.Error()))
	}
	s.tls.End()
}

// WroteRequest may be called more than once for retried requests; only the
// first call opens the span.
func (s *stageSpans) WroteRequest(info httptrace.WroteRequestInfo) {
	if s.ttfb != nil {
		return
	}
	s.ttfb = s.start("net.conn.time_to_first_byte")
	if info.Err != nil {
		s.ttfb.SetAttributes(attribute.String("error", info.Err.Error()))
	}
}

func (s *stageSpans) GotFirstResponseByte() {
	if s.ttfb != nil {
		s.ttfb.End()
	}
}
