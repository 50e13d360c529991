package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// rawAPI is the debugging surface of the Subsonic client: raw REST
// calls with auth params injected.
type rawAPI interface {
	Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
	Post(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

func (r *Runner) rawAPI() (rawAPI, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}
	api, ok := svc.(rawAPI)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not expose raw REST access", shared.ErrInvalidArgument, svc.Name())
	}
	return api, nil
}

// APIGet makes a direct GET request to a REST endpoint.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	endpoint := cmd.StringArg("endpoint")
	if endpoint == "" {
		return fmt.Errorf("%w: usage: api get <endpoint>", shared.ErrMissingArgument)
	}

	api, err := r.rawAPI()
	if err != nil {
		return err
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "endpoint", endpoint)

	payload, err := api.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	return r.writeRaw(payload, cmd.Bool("pretty"))
}

// APIPost makes a direct form-encoded POST request to a REST endpoint.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	endpoint := cmd.StringArg("endpoint")
	if endpoint == "" {
		return fmt.Errorf("%w: usage: api post <endpoint>", shared.ErrMissingArgument)
	}

	api, err := r.rawAPI()
	if err != nil {
		return err
	}

	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "endpoint", endpoint)

	payload, err := api.Post(ctx, endpoint, params)
	if err != nil {
		return err
	}
	return r.writeRaw(payload, cmd.Bool("pretty"))
}

// parseParams converts repeated key=value flags into query parameters.
func parseParams(pairs []string) (url.Values, error) {
	params := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: expected key=value, got %q", shared.ErrInvalidFlag, pair)
		}
		params.Add(key, value)
	}
	return params, nil
}

// writeRaw prints an undecoded JSON payload.
func (r *Runner) writeRaw(payload json.RawMessage, pretty bool) error {
	if !pretty {
		return r.writePlain("%s\n", payload)
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return r.writePlain("%s\n", payload)
	}
	return r.writeJSON(decoded, true)
}
