package summary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
)

type fakeGPT struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGPT) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

type fakeBing struct {
	reply string
	calls int
}

func (f *fakeBing) Once(context.Context, string) (string, error) {
	f.calls++
	return f.reply, nil
}

type fakePDF struct{}

func (fakePDF) Text(context.Context, []byte) (string, error) { return "текст из pdf", nil }

const article = `<html><head><title>t</title><style>p{color:red}</style>
<script>var x = "не надо";</script></head>
<body><nav>меню</nav><article><h1>Заголовок</h1><p>Первый   абзац.</p><p>Второй абзац.</p></article>
<footer>подвал</footer></body></html>`

func TestExtractText(t *testing.T) {
	got, err := ExtractText([]byte(article), "text/html; charset=utf-8")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Заголовок\nПервый абзац.\nВторой абзац." {
		t.Fatalf("ExtractText() = %q", got)
	}
}

func TestExtractTextDecodesCharset(t *testing.T) {
	// "Привет" в windows-1251
	body := []byte("<html><body><p>\xcf\xf0\xe8\xe2\xe5\xf2</p></body></html>")
	got, err := ExtractText(body, "text/html; charset=windows-1251")
	if err != nil || got != "Привет" {
		t.Fatalf("ExtractText() = %q, %v", got, err)
	}
}

func TestCutBytesKeepsRunes(t *testing.T) {
	s := strings.Repeat("я", 10) // 20 байт
	got := CutBytes(s, 7)
	if got != "яяя" || !utf8.ValidString(got) {
		t.Fatalf("CutBytes() = %q", got)
	}
	if CutBytes("abc", 10) != "abc" {
		t.Fatal("short text changed")
	}
}

func TestSummarizeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no agent", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(article))
	}))
	defer srv.Close()

	gpt := &fakeGPT{reply: " Кратко: два абзаца. "}
	s := NewService(gpt, nil, nil, zap.NewNop())

	got, err := s.SummarizeURL(context.Background(), srv.URL+"/news")
	if err != nil || got != "Кратко: два абзаца." {
		t.Fatalf("SummarizeURL() = %q, %v", got, err)
	}
	if !strings.HasPrefix(gpt.prompt, "Summarize the following, briefly answer in Russian") ||
		!strings.Contains(gpt.prompt, "Второй абзац.") {
		t.Fatalf("prompt = %q", gpt.prompt)
	}
}

func TestSummarizeURLReadsPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 ..."))
	}))
	defer srv.Close()

	gpt := &fakeGPT{reply: "ok"}
	s := NewService(gpt, nil, fakePDF{}, zap.NewNop())
	if _, err := s.SummarizeURL(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gpt.prompt, "текст из pdf") {
		t.Fatalf("prompt = %q", gpt.prompt)
	}
}

func TestSummarizeFallsBackToBing(t *testing.T) {
	bing := &fakeBing{reply: "от бинга"}
	s := NewService(&fakeGPT{err: errors.New("limit")}, bing, nil, zap.NewNop())

	if got := s.Summarize(context.Background(), "лог чата", SubjectChatLog); got != "от бинга" {
		t.Fatalf("Summarize() = %q", got)
	}

	s = NewService(&fakeGPT{reply: ""}, bing, nil, zap.NewNop())
	if got := s.Summarize(context.Background(), "текст", SubjectText); got != "от бинга" || bing.calls != 2 {
		t.Fatalf("Summarize() = %q, bing calls %d", got, bing.calls)
	}

	if got := s.Summarize(context.Background(), "  ", SubjectText); got != "" || bing.calls != 2 {
		t.Fatal("empty text reached the backends")
	}
}

func TestSummarizeURLRejects(t *testing.T) {
	s := NewService(nil, nil, nil, zap.NewNop())
	if _, err := s.SummarizeURL(context.Background(), "not a link"); !errors.Is(err, ErrBadURL) {
		t.Fatalf("err = %v, want ErrBadURL", err)
	}
	if _, err := s.SummarizeURL(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}
