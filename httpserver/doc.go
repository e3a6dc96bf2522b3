/*
Package httpserver implements a local HTTP harness for the SMS sender
pipeline.

The deployed function only runs inside the cloud runtime, which makes
iterating on message templates or gateway settings slow. The harness exposes
the same pipeline over plain HTTP so an event document captured from the
identity platform can be replayed against it with curl, exercising the real
decryption client and the real SMS gateway client.

API Endpoints:

  - POST /invoke - Run one event document through the pipeline
  - GET /livez - Liveness check
  - GET /readyz - Readiness check
  - GET /drain - Gracefully mark server as not ready
  - GET /undrain - Mark server as ready

POST /invoke answers 200 with the handler's acknowledgment, 400 when the
body is not a valid event document, and 502 with an errorMessage envelope
when the pipeline fails. The envelope matches what the cloud runtime reports
for a failed invocation.

Example usage:

	h := handler.NewHandler(cfg, decryptor, gateway, logger)

	config := &httpserver.HTTPServerConfig{
		ListenAddr:               "127.0.0.1:8080",
		EnablePprof:              false,
		Log:                      logger,
		DrainDuration:            45 * time.Second,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}

	server, err := httpserver.New(config, h)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	server.RunInBackground()
	defer server.Shutdown()
*/
package httpserver
