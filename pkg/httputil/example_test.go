package httputil_test

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/httputil"
)

func ExampleRetrier() {
	r := httputil.NewRetrier(3, 0, log.New(io.Discard))

	calls := 0
	err := r.Do(context.Background(), "fetch page", func() error {
		calls++
		if calls < 3 {
			return httputil.Retryable(errors.New("connection reset"))
		}
		return nil
	})
	fmt.Println("Error:", err)
	fmt.Println("Calls:", calls)
	// Output:
	// Error: <nil>
	// Calls: 3
}

func ExampleRetrier_exhausted() {
	r := httputil.NewRetrier(2, 0, log.New(io.Discard))

	err := r.Do(context.Background(), "fetch page", func() error {
		return olserrors.New(olserrors.ErrCodeServerError, "bad gateway").WithStatus(502)
	})
	fmt.Println("Code:", olserrors.GetCode(err))
	// Output:
	// Code: OBJECT_NOT_RETRIEVED
}

func ExampleRetrier_terminal() {
	r := httputil.NewRetrier(5, 0, log.New(io.Discard))

	calls := 0
	err := r.Do(context.Background(), "fetch term", func() error {
		calls++
		return olserrors.New(olserrors.ErrCodeNotFound, "no such term")
	})
	fmt.Println("Code:", olserrors.GetCode(err))
	fmt.Println("Calls:", calls)
	// Output:
	// Code: NOT_FOUND
	// Calls: 1
}
