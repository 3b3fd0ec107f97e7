package check

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// resolveRedirect checks that the manifest URL answers 302 with a Location
// carrying today's date, and returns that location as an absolute URL.
func (c *Checker) resolveRedirect(ctx context.Context) (string, *StageError) {
	manifest := c.cfg.ManifestURL

	cctx, cancel := c.callContext(ctx)
	resp, err := c.prober.Head(cctx, manifest)
	cancel()
	if err != nil {
		return "", transportError(StageRedirect, err)
	}
	if resp.StatusCode != http.StatusFound {
		return "", networkError(StageRedirect, "Expected status code 302 for url %s, got %d", manifest, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if !strings.Contains(location, c.cfg.Today) {
		return "", networkError(StageRedirect, "Expected today's date (%s), but got %q", c.cfg.Today, location)
	}

	target, err := resolveLocation(manifest, location)
	if err != nil {
		return "", networkError(StageRedirect, "Invalid redirect target %q from %s: %v", location, manifest, err)
	}
	return target, nil
}

// probeTarget checks that the dated target itself resolves.
func (c *Checker) probeTarget(ctx context.Context, target string) *StageError {
	cctx, cancel := c.callContext(ctx)
	resp, err := c.prober.Head(cctx, target)
	cancel()
	if err != nil {
		return transportError(StageRedirect, err)
	}
	if resp.StatusCode != http.StatusOK {
		return networkError(StageRedirect, "Expected status code 200 for url %s, got %d", target, resp.StatusCode)
	}
	return nil
}

func resolveLocation(base, location string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}
