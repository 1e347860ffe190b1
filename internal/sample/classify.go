package sample

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Classify maps a transport-level error to a short reason label. Wrappers
// such as *url.Error are peeled off so the label reflects the most specific
// underlying cause: a refused TCP connection is "ConnectionRefused", not the
// generic URL error that wraps it.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, syscall.ECONNREFUSED):
		return "ConnectionRefused"
	case errors.Is(err, syscall.ECONNRESET):
		return "ConnectionReset"
	case errors.Is(err, syscall.EPIPE):
		return "BrokenPipe"
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return "UnexpectedEOF"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNSError"
	}

	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return "HostnameError"
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return "UnknownAuthority"
	}
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) {
		return "CertificateInvalid"
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return "CertificateVerification"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Timeout"
	}

	return typeName(innermost(err))
}

// innermost walks the unwrap chain to the deepest cause, skipping the
// *url.Error wrapper the http client puts around every transport failure.
func innermost(err error) error {
	for {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			err = urlErr.Err
			continue
		}
		inner := errors.Unwrap(err)
		if inner == nil {
			return err
		}
		err = inner
	}
}

func typeName(err error) string {
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	// Plain string errors carry no useful type information.
	if name == "errors.errorString" || name == "fmt.wrapError" || name == "errors.joinError" {
		return "Error"
	}
	return name
}
