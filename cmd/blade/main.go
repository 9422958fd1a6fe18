package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dangdungcntt/blade"
	"github.com/dangdungcntt/blade/internal/config"
	"github.com/dangdungcntt/blade/internal/logger"
)

const usage = `usage: blade <command> [arguments]

commands:
  compile                compile every stale view
  render <view> [json]   render a view to stdout
  flush                  remove every compiled view
  serve                  serve views over HTTP
`

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Env)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	eng := blade.NewEngine(cfg.ViewsDir, blade.WithCacheDir(cfg.CacheDir), blade.WithLogger(logger.Log))

	var err error
	switch cmd := os.Args[1]; cmd {
	case "compile":
		err = eng.Load()
	case "render":
		err = handleRender(eng, os.Args[2:])
	case "flush":
		err = eng.Flush()
	case "serve":
		err = handleServe(eng, cfg)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Log.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
		os.Exit(1)
	}
}

func handleRender(eng *blade.Engine, args []string) error {
	if len(args) == 0 {
		return errors.New("render: missing view name")
	}
	data := map[string]any{}
	if len(args) > 1 {
		if err := gojson.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("render: parse data: %w", err)
		}
	}
	return eng.Render(os.Stdout, args[0], data)
}

func handleServe(eng *blade.Engine, cfg config.Config) error {
	if cfg.Precompile {
		if err := eng.Load(); err != nil {
			return err
		}
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.HTMLRender = blade.NewHTMLRender(eng)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		name := strings.Trim(c.Request.URL.Path, "/")
		if name == "" {
			name = "index"
		}
		data := gin.H{}
		for key, values := range c.Request.URL.Query() {
			data[key] = values[0]
		}
		blade.HTML(c, blade.NewPage("pages/"+name, data))
		if err := c.Errors.Last(); err != nil && !c.Writer.Written() {
			status := http.StatusInternalServerError
			if errors.Is(err.Err, blade.ErrViewNotFound) {
				status = http.StatusNotFound
			}
			logger.Log.Warn("render failed", slog.String("view", name), slog.Any("error", err.Err))
			c.String(status, http.StatusText(status))
		}
	})

	logger.Log.Info("serving views", slog.String("addr", cfg.Addr), slog.String("views", cfg.ViewsDir))
	return r.Run(cfg.Addr)
}
