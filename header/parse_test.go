package header_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/multipart/header"
)

func TestParseBlock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		block string
		want  []header.Entry
	}{
		{"empty", "", nil},
		{"whitespace only", " \r\n\t ", nil},
		{
			"single",
			"Content-Type: application/json",
			[]header.Entry{{Name: "Content-Type", Value: "application/json"}},
		},
		{
			"multiple crlf",
			"Content-Type: application/http\r\nContent-ID: response-1",
			[]header.Entry{
				{Name: "Content-Type", Value: "application/http"},
				{Name: "Content-ID", Value: "response-1"},
			},
		},
		{
			"bare lf",
			"A: 1\nB: 2\n",
			[]header.Entry{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}},
		},
		{
			"surrounding whitespace",
			"\r\n\r\n  A:   1  \r\nB:2\r\n\r\n",
			[]header.Entry{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}},
		},
		{
			"empty value",
			"X-Empty:\r\nX-Spaces:   ",
			[]header.Entry{{Name: "X-Empty", Value: ""}, {Name: "X-Spaces", Value: ""}},
		},
		{
			"value with colon",
			"Location: http://example.com:8080/path",
			[]header.Entry{{Name: "Location", Value: "http://example.com:8080/path"}},
		},
		{
			"no colon line dropped",
			"A: 1\r\ngarbage line\r\nB: 2",
			[]header.Entry{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}},
		},
		{
			"invalid name dropped",
			"Bad Name: 1\r\nGood: 2\r\nBad(): 3\r\n: 4",
			[]header.Entry{{Name: "Good", Value: "2"}},
		},
		{
			"space before colon dropped",
			"Content-Type : text/plain",
			nil,
		},
		{
			"control char in value dropped",
			"A: 1\x00\r\nB: 2\x7f\r\nC: 3",
			[]header.Entry{{Name: "C", Value: "3"}},
		},
		{
			"continuation line dropped",
			"A: 1\r\n\tcontinued\r\nB: 2",
			[]header.Entry{{Name: "A", Value: "1"}, {Name: "B", Value: "2"}},
		},
		{
			"duplicates last wins",
			"Vary: Origin\r\nX-A: 1\r\nvary: X-Origin\r\nVARY: Referer",
			[]header.Entry{{Name: "Vary", Value: "Referer"}, {Name: "X-A", Value: "1"}},
		},
		{
			"utf-8 value",
			"Subject: привет",
			[]header.Entry{{Name: "Subject", Value: "привет"}},
		},
		{"invalid utf-8", "A: 1\r\nB: \xff\xfe", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := header.ParseBlock([]byte(c.block)).Entries()
			if diff := cmp.Diff(got, c.want, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("header.ParseBlock(%q) = %+v, want %+v\ndiff (-got +want):\n%v", c.block, got, c.want, diff)
			}
		})
	}
}

type dropped struct {
	Line   string
	Reason error
}

func TestParseBlockFunc(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		block    string
		wantHdr  []header.Entry
		wantDrop []dropped
	}{
		{
			"valid",
			"A: 1",
			[]header.Entry{{Name: "A", Value: "1"}},
			nil,
		},
		{
			"all reasons",
			"nocolon\r\nBad Name: 1\r\nX: \x01\r\nOk: 2",
			[]header.Entry{{Name: "Ok", Value: "2"}},
			[]dropped{
				{"nocolon", header.ErrMissingColon},
				{"Bad Name: 1", header.ErrInvalidName},
				{"X: \x01", header.ErrInvalidValue},
			},
		},
		{
			"invalid encoding",
			"A: \xc3\x28",
			nil,
			[]dropped{{"A: \xc3\x28", header.ErrInvalidEncoding}},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			var gotDrop []dropped
			hdr := header.ParseBlockFunc([]byte(c.block), func(line string, reason error) {
				gotDrop = append(gotDrop, dropped{line, reason})
			})
			if diff := cmp.Diff(hdr.Entries(), c.wantHdr, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("header.ParseBlockFunc(%q) = %+v, want %+v\ndiff (-got +want):\n%v", c.block, hdr.Entries(), c.wantHdr, diff)
			}
			if diff := cmp.Diff(gotDrop, c.wantDrop, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("dropped lines = %+v, want %+v\ndiff (-got +want):\n%v", gotDrop, c.wantDrop, diff)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"":              false,
		"Content-Type":  true,
		"X-Custom_1.2":  true,
		"Content Type":  false,
		"Content-Type:": false,
	} {
		if got := header.ValidName(in); got != want {
			t.Errorf("header.ValidName(%q) = %v, want %v", in, got, want)
		}
	}
}
