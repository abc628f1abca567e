// Package protocol implements the textual toll wire format.
//
// A client sends exactly one request per connection: three
// whitespace-separated fields terminated by a newline,
//
//	ACTION PLATE POINT
//
// for example "ENTRY ABC123 9". The server answers with a single line,
// either "OK <message>" or "ERROR <message>", and closes the connection.
// Requests are UTF-8 and at most MaxRequestBytes long. A trailing carriage
// return is tolerated, and EOF terminates the request for clients that
// half-close after writing.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/benjaminclauss/tollgate/internal/toll"
)

// MaxRequestBytes bounds a request line. Longer requests are rejected rather
// than buffered, so a client cannot grow server memory with an endless line.
const MaxRequestBytes = 1024

// A Request is one decoded wire message. Fields are kept as raw tokens:
// field-level validation, and its ordering, belongs to the state machine.
type Request struct {
	Action string
	Plate  string
	Point  string
}

// ReadRequest reads one request line from r.
//
// It returns a *toll.RequestError for malformed or oversized input, io.EOF
// when the client sent nothing at all, and the underlying error for
// transport failures.
func ReadRequest(r io.Reader) (*Request, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, MaxRequestBytes), MaxRequestBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return nil, toll.ErrRequestTooLong
			}
			return nil, err
		}
		return nil, io.EOF
	}
	return ParseRequest(scanner.Text())
}

// ParseRequest splits one request line into its three fields.
func ParseRequest(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, toll.ErrMalformedRequest
	}
	return &Request{Action: fields[0], Plate: fields[1], Point: fields[2]}, nil
}

// String renders the request as it travels on the wire, without the
// trailing newline.
func (r *Request) String() string {
	return fmt.Sprintf("%s %s %s", r.Action, r.Plate, r.Point)
}

// WriteRequest sends one request line.
func WriteRequest(w io.Writer, req *Request) error {
	_, err := fmt.Fprintf(w, "%s\n", req)
	return err
}

const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// A Response reports the outcome of one request.
type Response struct {
	OK      bool
	Message string
}

func (r Response) String() string {
	status := statusOK
	if !r.OK {
		status = statusError
	}
	return status + " " + r.Message
}

// WriteResponse sends one response line.
func WriteResponse(w io.Writer, resp Response) error {
	_, err := fmt.Fprintf(w, "%s\n", resp)
	return err
}

// ReadResponse reads and parses one response line.
func ReadResponse(r io.Reader) (*Response, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, MaxRequestBytes), MaxRequestBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return ParseResponse(scanner.Text())
}

// ParseResponse splits a response line into its status and message.
func ParseResponse(line string) (*Response, error) {
	status, message, _ := strings.Cut(line, " ")
	switch status {
	case statusOK:
		return &Response{OK: true, Message: message}, nil
	case statusError:
		return &Response{OK: false, Message: message}, nil
	default:
		return nil, fmt.Errorf("unexpected response status: %q", status)
	}
}
