package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

const MaxRedirects = 30

type TooManyRedirectsError struct {
	Url string
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("Not following redirect to %s because there have been %d redirects already", e.Url, MaxRedirects)
}

// NewClient returns the client used for every request to one host during a
// run. Cookies set by the host are kept for later paths.
func NewClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)

	client := &http.Client{
		Jar:     jar,
		Timeout: timeout,
	}

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= MaxRedirects {
			return &TooManyRedirectsError{Url: req.URL.String()}
		}

		return nil
	}

	return client
}
