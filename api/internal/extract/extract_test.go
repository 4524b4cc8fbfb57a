package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/rotisserie/eris"

	"mcq-exam/api/internal/docread"
	"mcq-exam/api/internal/mcq"
	"mcq-exam/api/internal/resolver"
)

type fakeReader struct {
	text string
	err  error
}

func (f fakeReader) Read(context.Context, []byte, docread.Kind) (string, error) {
	return f.text, f.err
}

type panicResolver struct{}

func (panicResolver) Resolve(context.Context, string, []mcq.Question) resolver.Outcome {
	panic("boom")
}

type stubResolver struct{ calls int }

func (s *stubResolver) Resolve(_ context.Context, _ string, partial []mcq.Question) resolver.Outcome {
	s.calls++
	qs := mcq.Clone(partial)
	for i := range qs {
		qs[i].CorrectAnswer = "b"
		qs[i].Justification = "because"
	}
	return resolver.Outcome{Questions: qs, Enriched: true, Reason: resolver.ReasonEnriched}
}

const doc = "1. What is 2+2?\nA. 3\nB. 4\nC. 5\nD. 6\n"

func TestExtractText(t *testing.T) {
	p := New(docread.New(docread.PDFNever, nil), nil, mcq.ModeAuto, nil)
	ex, err := p.Extract(context.Background(), []byte(doc+"ANSWER: B\n"), docread.KindText)
	if err != nil {
		t.Fatal(err)
	}
	if len(ex.Questions) != 1 || ex.Questions[0].CorrectAnswer != "b" {
		t.Fatalf("extraction = %+v", ex)
	}
	if ex.Enriched || ex.Reason != resolver.ReasonDisabled {
		t.Errorf("enriched = %v, reason = %q", ex.Enriched, ex.Reason)
	}
}

func TestExtractEnriches(t *testing.T) {
	res := &stubResolver{}
	p := New(fakeReader{text: doc}, res, mcq.ModeAuto, nil)
	ex, err := p.Extract(context.Background(), nil, docread.KindText)
	if err != nil {
		t.Fatal(err)
	}
	if res.calls != 1 || !ex.Enriched || ex.Questions[0].Justification != "because" {
		t.Fatalf("extraction = %+v, calls = %d", ex, res.calls)
	}
	if ex.Report.Blocks != 1 {
		t.Errorf("report = %+v", ex.Report)
	}
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name string
		p    *Pipeline
	}{
		{"empty upload", New(fakeReader{text: ""}, nil, mcq.ModeAuto, nil)},
		{"prose only", New(fakeReader{text: "Chapter 1\nSome notes."}, &stubResolver{}, mcq.ModeAuto, nil)},
		{"unreadable", New(fakeReader{err: errors.New("corrupt xref")}, nil, mcq.ModeAuto, nil)},
		{"panic", New(fakeReader{text: doc}, panicResolver{}, mcq.ModeAuto, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := tt.p.Extract(context.Background(), nil, docread.KindText)
			if !eris.Is(err, ErrNoQuestions) {
				t.Fatalf("err = %v, want ErrNoQuestions", err)
			}
			if len(ex.Questions) != 0 {
				t.Errorf("partial list leaked: %+v", ex.Questions)
			}
		})
	}
}

func TestExtractDoesNotEnrichEmpty(t *testing.T) {
	res := &stubResolver{}
	p := New(fakeReader{text: "nothing to see"}, res, mcq.ModeAuto, nil)
	if _, err := p.Extract(context.Background(), nil, docread.KindText); err == nil {
		t.Fatal("expected error")
	}
	if res.calls != 0 {
		t.Errorf("resolver called %d times for zero records", res.calls)
	}
}
