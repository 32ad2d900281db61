package policy

import (
	"context"
	"errors"
	"net/http"

	"github.com/voxgate/voxgate/pkg/auth"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Provider evaluates a Rego rule per request. The rule set is loaded once
// at startup; data.voxgate.authz.allow must evaluate to true.
type Provider struct {
	query rego.PreparedEvalQuery
}

func New(path string) (*Provider, error) {
	query, err := rego.New(
		rego.Query("data.voxgate.authz.allow"),
		rego.Load([]string{path}, nil),
	).PrepareForEval(context.Background())

	if err != nil {
		return nil, err
	}

	return &Provider{
		query: query,
	}, nil
}

func (p *Provider) Authenticate(ctx context.Context, r *http.Request) (context.Context, error) {
	headers := map[string]string{}

	for key := range r.Header {
		headers[key] = r.Header.Get(key)
	}

	input := map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,

		"headers": headers,
	}

	if user, ok := ctx.Value(auth.UserContextKey).(string); ok {
		input["user"] = user
	}

	results, err := p.query.Eval(ctx, rego.EvalInput(input))

	if err != nil {
		return ctx, err
	}

	if !results.Allowed() {
		return ctx, errors.New("request denied by policy")
	}

	return ctx, nil
}
