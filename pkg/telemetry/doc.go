// Package telemetry provides the observability plumbing for communitydesk.
//
// It bundles structured logging (zerolog), tracing (OpenTelemetry) and
// metrics (Prometheus) behind a single Telemetry value that the CLI builds
// once per invocation:
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// Loggers are carried in the context; packages fetch theirs with
// FromContext and derive component loggers from it. Metrics are written to
// a textfile on Shutdown because a CLI process does not live long enough to
// be scraped.
package telemetry
