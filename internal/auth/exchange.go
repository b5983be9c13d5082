package auth

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
)

type exchangeKey struct{}

// exchange - HTTP-состояние одного запроса, доступное резолверам через контекст:
// исходный запрос, обертка над ResponseWriter и закэшированная сессия.
type exchange struct {
	r *http.Request
	w *statusWriter

	mu       sync.Mutex
	resolved bool
	session  Session
}

// Exchange кладет запрос и ResponseWriter в контекст. Должен стоять до
// GraphQL-обработчика: резолверы выставляют cookie и статус ответа через него.
func Exchange(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		ex := &exchange{r: r, w: sw}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), exchangeKey{}, ex)))
	})
}

func fromContext(ctx context.Context) *exchange {
	ex, _ := ctx.Value(exchangeKey{}).(*exchange)
	return ex
}

// SetStatus задает HTTP-статус ответа. Статус применяется при первой записи
// тела; из нескольких вызовов побеждает наибольший код.
func SetStatus(ctx context.Context, code int) {
	if ex := fromContext(ctx); ex != nil {
		ex.w.setStatus(code)
	}
}

// Status возвращает отложенный статус (0, если не задан).
func Status(ctx context.Context) int {
	if ex := fromContext(ctx); ex != nil {
		return ex.w.pending()
	}
	return 0
}

// === statusWriter ===

type statusWriter struct {
	http.ResponseWriter

	mu          sync.Mutex
	status      int
	wroteHeader bool
}

func (w *statusWriter) setStatus(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if code > w.status {
		w.status = code
	}
}

func (w *statusWriter) pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *statusWriter) WriteHeader(code int) {
	w.mu.Lock()
	w.wroteHeader = true
	w.mu.Unlock()
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	if !w.wroteHeader {
		w.wroteHeader = true
		if w.status != 0 {
			code := w.status
			w.mu.Unlock()
			w.ResponseWriter.WriteHeader(code)
			return w.ResponseWriter.Write(b)
		}
	}
	w.mu.Unlock()
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack нужен websocket-транспорту подписок.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("auth: response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
