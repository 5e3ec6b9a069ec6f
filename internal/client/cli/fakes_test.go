package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/devhabit/internal/client/client"
	"github.com/dmitrijs2005/devhabit/internal/client/config"
)

type fakeClient struct {
	loggedIn bool

	regEmail, regPassword, regName string
	loginEmail, loginPassword      string

	regErr     error
	loginErr   error
	refreshErr error
	meErr      error
	pingErr    error

	user *client.User

	refreshCalls int
	logoutCalls  int
}

func (f *fakeClient) Register(_ context.Context, email, password, name string) error {
	f.regEmail, f.regPassword, f.regName = email, password, name
	if f.regErr != nil {
		return f.regErr
	}
	f.loggedIn = true
	return nil
}

func (f *fakeClient) Login(_ context.Context, email, password string) error {
	f.loginEmail, f.loginPassword = email, password
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = true
	return nil
}

func (f *fakeClient) Refresh(context.Context) error {
	f.refreshCalls++
	return f.refreshErr
}

func (f *fakeClient) Me(context.Context) (*client.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Logout() {
	f.logoutCalls++
	f.loggedIn = false
}

func (f *fakeClient) LoggedIn() bool { return f.loggedIn }

func newTestApp(api client.Client) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return newApp(&config.Config{}, api, strings.NewReader(""), &out), &out
}

func stubInputs(t *testing.T, answers []string, password []byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	i := 0
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if i >= len(answers) {
			return "", io.EOF
		}
		s := answers[i]
		i++
		return s, nil
	}
	getPassword = func(_ io.Writer) ([]byte, error) { return append([]byte(nil), password...), nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}
