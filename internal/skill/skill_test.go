package skill

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/loanworker/internal/domain"
	"github.com/shaiso/loanworker/internal/mq"
)

// --- HTTPSkill Tests ---

func TestHTTPSkill_PostsJSON(t *testing.T) {
	var receivedBody map[string]any
	var receivedContentType, receivedAuth, receivedMethod string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedMethod = r.Method
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&receivedBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"firstName":"John"}`))
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{
		Name:    ExtractName,
		URL:     server.URL,
		Headers: map[string]string{"Authorization": "Bearer token123"},
	})

	raw, err := s.Execute(context.Background(), map[string]any{"url": "https://docs/form.pdf"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", receivedMethod)
	}
	if receivedContentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", receivedContentType)
	}
	if receivedAuth != "Bearer token123" {
		t.Errorf("expected Authorization header, got %q", receivedAuth)
	}
	if receivedBody["url"] != "https://docs/form.pdf" {
		t.Errorf("server should receive url param, got %v", receivedBody)
	}
	if string(raw) != `{"firstName":"John"}` {
		t.Errorf("unexpected response %s", raw)
	}
}

func TestHTTPSkill_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error": "upstream down"}`))
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{Name: ComplianceName, URL: server.URL})
	_, err := s.Execute(context.Background(), map[string]any{})

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected *CallError, got %v", err)
	}
	if callErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", callErr.StatusCode)
	}
	if !errors.Is(err, ErrSkillCall) {
		t.Error("CallError should unwrap to ErrSkillCall")
	}
	if !strings.Contains(callErr.Body, "upstream down") {
		t.Errorf("body should be kept, got %q", callErr.Body)
	}
}

func TestHTTPSkill_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{Name: EmailName, URL: server.URL})
	raw, err := s.Execute(context.Background(), domain.EmailMessage{Subject: "s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("expected null, got %s", raw)
	}
}

func TestHTTPSkill_NotJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>oops</html>"))
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{Name: ExtractName, URL: server.URL})
	_, err := s.Execute(context.Background(), nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestHTTPSkill_ResponseTooLarge(t *testing.T) {
	body := `{"padding":"` + strings.Repeat("x", 4096) + `"}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{Name: ExtractName, URL: server.URL, MaxResponseBody: 1024})
	raw, err := s.Execute(context.Background(), nil)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v (%d bytes accepted)", err, len(raw))
	}

	s = NewHTTPSkill(HTTPConfig{Name: ExtractName, URL: server.URL, MaxResponseBody: int64(len(body))})
	if _, err := s.Execute(context.Background(), nil); err != nil {
		t.Errorf("body of exactly the limit should be accepted, got %v", err)
	}
}

func TestHTTPSkill_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := NewHTTPSkill(HTTPConfig{Name: ExtractName, URL: server.URL, Timeout: 100 * time.Millisecond})
	_, err := s.Execute(context.Background(), nil)
	if !errors.Is(err, ErrSkillCall) {
		t.Errorf("expected ErrSkillCall for timeout, got %v", err)
	}
}

// --- QueueSkill Tests ---

type fakePublisher struct {
	routingKey mq.RoutingKey
	payload    mq.SkillRequestPayload
	err        error
}

func (p *fakePublisher) PublishSkillRequest(_ context.Context, routingKey mq.RoutingKey, payload mq.SkillRequestPayload) error {
	p.routingKey = routingKey
	p.payload = payload
	return p.err
}

func TestQueueSkill_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	s := NewQueueSkill(EmailName, mq.RoutingKeyEmailOutbound, pub)

	msg := domain.EmailMessage{Subject: "hello", To: "a@b", From: "c@d", Text: "body"}
	raw, err := s.Execute(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"queued":true}` {
		t.Errorf("unexpected response %s", raw)
	}
	if pub.routingKey != mq.RoutingKeyEmailOutbound {
		t.Errorf("unexpected routing key %s", pub.routingKey)
	}
	if pub.payload.Skill != EmailName {
		t.Errorf("expected skill name in payload, got %q", pub.payload.Skill)
	}
	if got, ok := pub.payload.Params.(domain.EmailMessage); !ok || got != msg {
		t.Errorf("unexpected params %#v", pub.payload.Params)
	}
}

func TestQueueSkill_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	s := NewQueueSkill(EmailName, mq.RoutingKeyEmailOutbound, pub)

	if _, err := s.Execute(context.Background(), nil); !errors.Is(err, ErrSkillCall) {
		t.Errorf("expected ErrSkillCall, got %v", err)
	}
}

func TestQueueSkill_NoPublisher(t *testing.T) {
	s := NewQueueSkill(EmailName, mq.RoutingKeyEmailOutbound, nil)
	if _, err := s.Execute(context.Background(), nil); !errors.Is(err, ErrSkillCall) {
		t.Errorf("expected ErrSkillCall, got %v", err)
	}
}

// --- Resolve Tests ---

func staticSkill(response string) Skill {
	return Func(func(context.Context, any) (json.RawMessage, error) {
		return json.RawMessage(response), nil
	})
}

func TestResolve_MissingSkills(t *testing.T) {
	r := NewRegistry()
	r.Register(ComplianceName, staticSkill(`{}`))

	_, err := Resolve(r)
	if !errors.Is(err, ErrSkillNotFound) {
		t.Fatalf("expected ErrSkillNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), ExtractName) || !strings.Contains(err.Error(), EmailName) {
		t.Errorf("error should list all missing skills: %v", err)
	}
}

func TestResolve_Capabilities(t *testing.T) {
	var extractParams, complianceParams, emailParams any

	r := NewRegistry()
	r.Register(ExtractName, Func(func(_ context.Context, params any) (json.RawMessage, error) {
		extractParams = params
		return json.RawMessage(`{"amount": 185000, "firstName": "John"}`), nil
	}))
	r.Register(ComplianceName, Func(func(_ context.Context, params any) (json.RawMessage, error) {
		complianceParams = params
		return json.RawMessage(` {"data":{"report":{}}} `), nil
	}))
	r.Register(EmailName, Func(func(_ context.Context, params any) (json.RawMessage, error) {
		emailParams = params
		return nil, nil
	}))

	caps, err := Resolve(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()

	result, err := caps.Extractor.Extract(ctx, "https://docs/form.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if p := extractParams.(map[string]any); p["url"] != "https://docs/form.pdf" {
		t.Errorf("unexpected extract params %v", extractParams)
	}
	if result["amount"] != json.Number("185000") {
		t.Errorf("numbers should be kept as json.Number, got %#v", result["amount"])
	}

	doc := &domain.LoanDocument{}
	raw, err := caps.Compliance.Check(ctx, doc)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if string(raw) != `{"data":{"report":{}}}` {
		t.Errorf("unexpected compliance response %s", raw)
	}
	if p := complianceParams.(map[string]any); p["data"] != doc {
		t.Errorf("compliance params should wrap document in data, got %v", complianceParams)
	}

	msg := domain.EmailMessage{Subject: "s"}
	if err := caps.Mailer.Send(ctx, msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if emailParams != msg {
		t.Errorf("email params should be the message, got %v", emailParams)
	}
}

func TestCompliance_RejectsNonObject(t *testing.T) {
	r := NewRegistry()
	r.Register(ExtractName, staticSkill(`{}`))
	r.Register(ComplianceName, staticSkill(`[1,2]`))
	r.Register(EmailName, staticSkill(`null`))

	caps, err := Resolve(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := caps.Compliance.Check(context.Background(), &domain.LoanDocument{}); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestExtract_RejectsNull(t *testing.T) {
	r := NewRegistry()
	r.Register(ExtractName, staticSkill(`null`))
	r.Register(ComplianceName, staticSkill(`{}`))
	r.Register(EmailName, staticSkill(`null`))

	caps, _ := Resolve(r)
	if _, err := caps.Extractor.Extract(context.Background(), "u"); !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

// --- BuildRegistry Tests ---

func TestBuildRegistry(t *testing.T) {
	defs := []Definition{
		{Name: ExtractName, URL: "http://extract"},
		{Name: ComplianceName, Transport: TransportHTTP, URL: "http://odm", Timeout: 5 * time.Second},
		{Name: EmailName, Transport: TransportQueue, RoutingKey: string(mq.RoutingKeyEmailOutbound)},
	}

	r, err := BuildRegistry(defs, &fakePublisher{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Names()) != 3 {
		t.Errorf("expected 3 skills, got %v", r.Names())
	}
	s, _ := r.Get(EmailName)
	if _, ok := s.(*QueueSkill); !ok {
		t.Errorf("email skill should be QueueSkill, got %T", s)
	}
	s, _ = r.Get(ComplianceName)
	if h, ok := s.(*HTTPSkill); !ok || h.timeout != 5*time.Second {
		t.Errorf("compliance skill should be HTTPSkill with timeout, got %#v", s)
	}
}

func TestBuildRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"empty name", Definition{URL: "http://x"}},
		{"http without url", Definition{Name: "a"}},
		{"queue without routing key", Definition{Name: "a", Transport: TransportQueue}},
		{"unknown transport", Definition{Name: "a", Transport: "grpc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildRegistry([]Definition{tt.def}, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}
