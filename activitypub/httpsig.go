package activitypub

import (
	"crypto/rsa"
	"fmt"
	"net/http"

	"code.superseriousbusiness.org/httpsig"
)

// SignRequest signs an outgoing request with the account's RSA key.
// GET requests sign (request-target), host and date; requests with a
// body additionally cover the digest header.
func SignRequest(req *http.Request, privateKey *rsa.PrivateKey, keyID string, body []byte) error {
	headers := []string{httpsig.RequestTarget, "host", "date"}
	if len(body) > 0 {
		headers = append(headers, "digest")
	}

	signer, _, err := httpsig.NewSigner(
		[]httpsig.Algorithm{httpsig.RSA_SHA256},
		httpsig.DigestSha256,
		headers,
		httpsig.Signature,
		0,
	)
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	if err := signer.SignRequest(privateKey, keyID, req, body); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	return nil
}
