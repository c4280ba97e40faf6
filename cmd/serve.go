package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhisek/tutorgate/internal/api"
	"github.com/abhisek/tutorgate/internal/config"
	"github.com/abhisek/tutorgate/internal/keyvault"
	"github.com/abhisek/tutorgate/internal/llm"
	"github.com/abhisek/tutorgate/internal/logging"
	"github.com/abhisek/tutorgate/internal/mastery"
	"github.com/abhisek/tutorgate/internal/quiz"
	"github.com/abhisek/tutorgate/internal/scheduler"
	"github.com/abhisek/tutorgate/internal/tutor"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		log, err := logging.New(cfg.LogMode)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer log.Sync()

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		vault, err := keyvault.New(cfg.VaultConfig(), log)
		if err != nil {
			return fmt.Errorf("create key vault: %w", err)
		}

		gw := llm.NewGateway(llm.DefaultRegistry(cfg.LLM, s.EventRepo()), cfg.LLM.ChatTimeout, log)

		bank, err := quiz.DefaultBank()
		if err != nil {
			return fmt.Errorf("load question bank: %w", err)
		}
		tracker := mastery.NewTracker(s.MasteryRepo())
		quizzes, err := quiz.NewStore(quiz.Options{
			Bank:      bank,
			Generator: quiz.NewGenerator(gw, cfg.LLM.QuizTimeout, log),
			Mastery:   tracker,
			Sessions:  s.QuizSessionRepo(),
			History:   s.QuizHistoryRepo(),
			Log:       log,
		})
		if err != nil {
			return fmt.Errorf("create quiz store: %w", err)
		}

		if logging.IsProduction(cfg.LogMode) {
			gin.SetMode(gin.ReleaseMode)
		}
		router := api.NewRouter(api.Deps{
			Tutor:       tutor.NewService(gw, vault, cfg.LLM.ChatTimeout, log),
			Vault:       vault,
			Quiz:        quizzes,
			Mastery:     tracker,
			Log:         log,
			CORSOrigins: cfg.CORSOrigins,
		})

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		sched := scheduler.New(scheduler.Config{
			Interval:       cfg.SweepInterval,
			QuizSessionTTL: cfg.QuizSessionTTL,
		}, quizzes, vault, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("listening", "addr", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			if err := sched.Start(); err != nil {
				return err
			}
			<-gctx.Done()
			sched.Stop()
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TUTOR_HTTP_ADDR)")
}
