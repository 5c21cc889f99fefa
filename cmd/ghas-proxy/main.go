// Command ghas-proxy is a caching, rate-limit-aware proxy in front of the
// GitHub API. GET requests under /github/ are forwarded through the resilient
// client, so every consumer behind the proxy shares one rate-limit budget and
// one ETag cache.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/auth"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/cache"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/client"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/logging"
	"github.com/Notoriousjayy/ghas-code-scanning-toolkit/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := loadProxyConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Output: os.Stderr,
	})

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		logger.Fatal().Msg("GITHUB_TOKEN is required")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

	clientCfg := client.DefaultConfig(auth.StaticToken(token))
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Cache = cache.NewManager(redisClient, cfg.CacheTTL)
	clientCfg.RateLimits = ratelimit.NewTracker(redisClient, logging.NewLogger("ratelimit"))

	ghClient, err := client.New(clientCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create GitHub client")
	}

	http.HandleFunc("/health", healthHandler)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/github/", forwardHandler(ghClient))

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("base_url", cfg.BaseURL).Msg("Starting GitHub API proxy")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// forwardHandler forwards GET requests to the GitHub API through the
// resilient client. Example: /github/repos/octocat/hello/code-scanning/alerts
// is forwarded as /repos/octocat/hello/code-scanning/alerts.
func forwardHandler(ghClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET is proxied", http.StatusMethodNotAllowed)
			return
		}

		path := r.URL.Path[len("/github"):]

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		resp, err := ghClient.Do(ctx, client.Request{
			Method: http.MethodGet,
			Path:   path,
			Query:  r.URL.Query(),
		})
		if err != nil {
			writeProxyError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if id := resp.RequestID(); id != "" {
			w.Header().Set("X-Github-Request-Id", id)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(resp.Body)
	}
}

// writeProxyError maps client error kinds onto proxy response codes.
func writeProxyError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case client.IsUnauthorized(err):
		status = http.StatusUnauthorized
	case client.IsNotFound(err):
		status = http.StatusNotFound
	case client.IsRateLimited(err):
		status = http.StatusTooManyRequests
	}
	http.Error(w, err.Error(), status)
}
