// Package pwned consulta la API de rangos de HaveIBeenPwned (k-anonymity): solo
// los 5 primeros caracteres del SHA-1 de la contraseña salen del proceso.
package pwned

import (
	"bufio"
	"context"
	"crypto/sha1" //nolint:gosec // lo exige el protocolo de la API de rangos
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jhoicas/zzp-facturatie-api/internal/application/auth"
)

var _ auth.BreachChecker = (*Client)(nil)

const (
	defaultRetryWaitMax = 2 * time.Second
	defaultTimeout      = 5 * time.Second
)

// Client cliente HTTP con reintentos sobre /range/{prefix}.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// NewClient construye el cliente. baseURL sin barra final (p.ej. https://api.pwnedpasswords.com).
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = defaultRetryWaitMax
	rc.HTTPClient.Timeout = defaultTimeout
	rc.Logger = nil
	return &Client{http: rc, baseURL: strings.TrimRight(baseURL, "/")}
}

// IsBreached indica si la contraseña aparece en el corpus de filtraciones.
func (c *Client) IsBreached(ctx context.Context, password string) (bool, error) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := digest[:5], digest[5:]

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return false, fmt.Errorf("pwned: crear request: %w", err)
	}
	req.Header.Set("Add-Padding", "true")
	req.Header.Set("User-Agent", "zzp-facturatie-api")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("pwned: consulta: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("pwned: status inesperado %d", resp.StatusCode)
	}

	// Cada línea: SUFIJO:CONTADOR. Las líneas de relleno llevan contador 0.
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		hash, count, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok || !strings.EqualFold(hash, suffix) {
			continue
		}
		return strings.TrimSpace(count) != "0", nil
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("pwned: leer respuesta: %w", err)
	}
	return false, nil
}
