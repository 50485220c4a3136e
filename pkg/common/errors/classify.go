package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// Classify 检查底层传输返回的结构化错误并归入类别。
//
// 分类依据错误的类型链而非消息文本。已分类的错误原样返回。
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return New(err, ErrorTypeTimeout, nil)
		}
		return New(err, ErrorTypeDNS, nil)
	}

	if isTLSVerification(err) {
		return New(err, ErrorTypeTLSVerification, nil)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(err, ErrorTypeTimeout, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(err, ErrorTypeTimeout, nil)
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return New(err, ErrorTypeConnect, nil)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return New(err, ErrorTypeConnect, nil)
	}

	return New(err, ErrorTypeOther, nil)
}

func isTLSVerification(err error) bool {
	var (
		certVerify    *tls.CertificateVerificationError
		unknownAuth   x509.UnknownAuthorityError
		hostnameErr   x509.HostnameError
		certInvalid   x509.CertificateInvalidError
		systemRootErr x509.SystemRootsError
	)
	return errors.As(err, &certVerify) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &certInvalid) ||
		errors.As(err, &systemRootErr)
}
