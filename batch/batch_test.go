package batch_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/ghettovoice/multipart"
	"github.com/ghettovoice/multipart/batch"
	"github.com/ghettovoice/multipart/header"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const boundary = "abhjdahkdhfsikldhjfliawefrkhkahskda"

var fcmPayload = strings.NewReplacer("\n", "\r\n", "{{garbage}}", "\r\r\r\r\r\r\r\r").Replace(`--` + boundary + `
Content-Type: application/http
Content-ID: response-1

HTTP/1.1 200 OK
Content-Type: application/json; charset=UTF-8
Vary: Origin
Vary: X-Origin
Vary: Referer

{
"name": "projects/35006771263/messages/0:1570471792141125%43c11b7043c11b70"
}

--` + boundary + `
Content-Type: application/http
Content-ID: response-2

HTTP/1.1 400 BAD REQUEST
Content-Type: application/json; charset=UTF-8
Vary: Origin
Vary: X-Origin
Vary: Referer

{
"error": {
    "code": 400,
    "message": "The registration token is not a valid FCM registration token",
    "status": "INVALID_ARGUMENT"
  }
}

--` + boundary + `
Content-Type: application/http
Content-ID: response-3

HTTP/1.1 200 OK
Content-Type: application/json; charset=UTF-8
Vary: Origin
Vary: X-Origin
Vary: Referer

{{{garbage}}
"name": "projects/35006771263/messages/0:1570471792141696%43c11b7043c11b70"
}

--` + boundary + `--`)

func TestReadResponses(t *testing.T) {
	t.Parallel()

	type result struct {
		Index      int
		ContentID  string
		StatusCode int
		Vary       string
	}

	var (
		got    []result
		bodies [][]byte
	)
	for resp, err := range batch.ReadResponses("multipart/mixed; boundary="+boundary, []byte(fcmPayload), nil) {
		if err != nil {
			t.Fatalf("batch.ReadResponses() error = %v, want nil", err)
		}
		body, err := io.ReadAll(resp.HTTP.Body)
		if err != nil {
			t.Fatalf("io.ReadAll(resp.HTTP.Body) error = %v, want nil", err)
		}
		bodies = append(bodies, body)
		got = append(got, result{
			Index:      resp.Index,
			ContentID:  resp.ContentID,
			StatusCode: resp.HTTP.StatusCode,
			Vary:       resp.HTTP.Header.Get("Vary"),
		})
	}

	want := []result{
		{0, "response-1", http.StatusOK, "Origin"},
		{1, "response-2", http.StatusBadRequest, "Origin"},
		{2, "response-3", http.StatusOK, "Origin"},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("responses = %+v, want %+v\ndiff (-got +want):\n%v", got, want, diff)
	}

	var okBody struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(bodies[0], &okBody); err != nil {
		t.Errorf("json.Unmarshal(body #0) error = %v, want nil", err)
	}
	if want := "projects/35006771263/messages/0:1570471792141125%43c11b7043c11b70"; okBody.Name != want {
		t.Errorf("body #0 name = %q, want %q", okBody.Name, want)
	}

	var errBody struct {
		Error struct {
			Code   int    `json:"code"`
			Status string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(bodies[1], &errBody); err != nil {
		t.Errorf("json.Unmarshal(body #1) error = %v, want nil", err)
	}
	if errBody.Error.Code != 400 || errBody.Error.Status != "INVALID_ARGUMENT" {
		t.Errorf("body #1 error = %+v, want code 400 and status INVALID_ARGUMENT", errBody.Error)
	}

	for i, body := range bodies {
		if !bytes.Contains(body, []byte("\r\n")) {
			t.Errorf("body #%d = %q, want raw CRLF line breaks", i, body)
		}
	}
	if !bytes.Contains(bodies[2], []byte("{\r\r\r\r\r\r\r\r\r\n")) {
		t.Errorf("body #2 = %q, want bare CR bytes kept", bodies[2])
	}
}

func TestReadResponses_Errors(t *testing.T) {
	t.Parallel()

	payload := "--b\r\n" +
		"Content-Type: application/json\r\n\r\n{}\r\n" +
		"--b\r\n" +
		"Content-Type: application/http\r\n\r\nnot a status line\r\n" +
		"--b\r\n" +
		"no separator\r\n" +
		"--b\r\n" +
		"Content-Type: Application/HTTP; msgtype=response\r\nContent-ID: <response-4>\r\n\r\n" +
		"HTTP/1.1 204 No Content\r\n\r\n" +
		"--b--"

	var (
		gotErrs  []error
		gotCodes []int
	)
	for resp, err := range batch.ReadResponses("multipart/mixed; boundary=b", []byte(payload), nil) {
		if err != nil {
			gotErrs = append(gotErrs, err)
			continue
		}
		gotCodes = append(gotCodes, resp.HTTP.StatusCode)
	}

	wantErrs := []error{batch.ErrNotHTTPPart, batch.ErrMalformedResponse, multipart.ErrMalformedPart}
	if diff := cmp.Diff(gotErrs, wantErrs, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("errors = %v, want %v\ndiff (-got +want):\n%v", gotErrs, wantErrs, diff)
	}
	if diff := cmp.Diff(gotCodes, []int{http.StatusNoContent}); diff != "" {
		t.Errorf("status codes = %v, want [204]\ndiff (-got +want):\n%v", gotCodes, diff)
	}
}

func TestReadResponses_Fatal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
	}{
		{"no boundary", "application/http", fcmPayload, multipart.ErrBoundaryNotFound},
		{"wrong boundary", "multipart/mixed; boundary=other", fcmPayload, multipart.ErrMalformedMultipart},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var n int
			for resp, err := range batch.ReadResponses(c.contentType, []byte(c.body), nil) {
				n++
				if resp != nil {
					t.Errorf("batch.ReadResponses() response = %v, want nil", resp)
				}
				if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
					t.Errorf("batch.ReadResponses() error = %v, want %v\ndiff (-got +want):\n%v", err, c.wantErr, diff)
				}
			}
			if n != 1 {
				t.Errorf("batch.ReadResponses() yielded %d values, want 1", n)
			}
		})
	}
}

func TestReadResponses_Break(t *testing.T) {
	t.Parallel()

	var n int
	for range batch.ReadResponses("multipart/mixed; boundary="+boundary, []byte(fcmPayload), &batch.Options{MaxParts: 10}) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterations = %d, want 1", n)
	}
}

func TestReadResponse(t *testing.T) {
	t.Parallel()

	httpPart := &multipart.Part{
		Index:  2,
		Header: header.New().Set("Content-Type", "application/http").Set("Content-ID", "response-2"),
		Body:   []byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n{}"),
	}
	jsonPart := &multipart.Part{
		Index:  0,
		Header: header.New().Set("Content-Type", "application/json"),
		Body:   []byte("{}"),
	}

	cases := []struct {
		name     string
		part     *multipart.Part
		wantCode int
		wantErr  error
	}{
		{"nil part", nil, 0, multipart.ErrInvalidArgument},
		{"not http", jsonPart, 0, batch.ErrNotHTTPPart},
		{"http", httpPart, http.StatusOK, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			resp, err := batch.ReadResponse(c.part)
			if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
				t.Fatalf("batch.ReadResponse() error = %v, want %v\ndiff (-got +want):\n%v", err, c.wantErr, diff)
			}
			if c.wantErr != nil {
				if resp != nil {
					t.Errorf("batch.ReadResponse() = %v, want nil", resp)
				}
				return
			}
			if resp.HTTP.StatusCode != c.wantCode {
				t.Errorf("batch.ReadResponse().HTTP.StatusCode = %d, want %d", resp.HTTP.StatusCode, c.wantCode)
			}
			if resp.Index != c.part.Index || resp.ContentID != c.part.ContentID() {
				t.Errorf("batch.ReadResponse() = (%d, %q), want (%d, %q)", resp.Index, resp.ContentID, c.part.Index, c.part.ContentID())
			}
		})
	}
}

func TestContentIDIndex(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"response-0", 0, nil},
		{"response-42", 42, nil},
		{" <response-7> ", 7, nil},
		{"response-", 0, multipart.ErrInvalidArgument},
		{"response-abc", 0, multipart.ErrInvalidArgument},
		{"response--1", 0, multipart.ErrInvalidArgument},
		{"item-1", 0, multipart.ErrInvalidArgument},
		{"", 0, multipart.ErrInvalidArgument},
	}

	for _, c := range cases {
		got, err := batch.ContentIDIndex(c.in)
		if diff := cmp.Diff(err, c.wantErr, cmpopts.EquateErrors()); diff != "" {
			t.Errorf("batch.ContentIDIndex(%q) error = %v, want %v\ndiff (-got +want):\n%v", c.in, err, c.wantErr, diff)
		}
		if got != c.want {
			t.Errorf("batch.ContentIDIndex(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
