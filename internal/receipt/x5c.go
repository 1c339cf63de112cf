package receipt

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
)

var signedAlgorithms = []jose.SignatureAlgorithm{jose.ES256, jose.ES384, jose.RS256}

// X5CVerifier checks a compact JWS whose protected header carries an x5c
// chain ending at one of the configured roots.
type X5CVerifier struct {
	roots *x509.CertPool
	now   func() time.Time
}

func NewX5CVerifier(roots *x509.CertPool) *X5CVerifier {
	return &X5CVerifier{roots: roots, now: time.Now}
}

// LoadX5CVerifier reads PEM root certificates from path.
func LoadX5CVerifier(path string) (*X5CVerifier, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read root ca file: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}

	return NewX5CVerifier(pool), nil
}

func (v *X5CVerifier) Verify(token string) error {
	jws, err := jose.ParseSigned(token, signedAlgorithms)
	if err != nil {
		return fmt.Errorf("parse jws: %w", err)
	}

	if len(jws.Signatures) != 1 {
		return fmt.Errorf("want exactly one signature, got %d", len(jws.Signatures))
	}

	chains, err := jws.Signatures[0].Header.Certificates(x509.VerifyOptions{
		Roots:       v.roots,
		CurrentTime: v.now(),
		KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("verify chain: %w", err)
	}

	if len(chains) == 0 || len(chains[0]) == 0 {
		return errors.New("empty certificate chain")
	}

	leaf := chains[0][0]

	_, err = jws.Verify(leaf.PublicKey)
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}
