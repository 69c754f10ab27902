package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/lovesync/internal/credentials"
	"github.com/desertthunder/lovesync/internal/identity"
	"github.com/desertthunder/lovesync/internal/repositories"
	"github.com/desertthunder/lovesync/internal/services"
	"github.com/desertthunder/lovesync/internal/shared"
	"github.com/desertthunder/lovesync/internal/tasks"
	"github.com/desertthunder/lovesync/internal/ui"
)

const sessionService = "lastfm"

// sessionHolder is implemented by loved services that sign writes with a session key.
type sessionHolder interface {
	SetSessionKey(key string)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services left nil in [RunnerOpts] are built from the configuration when a command needs them.
type Runner struct {
	config     *shared.Config
	configPath string
	local      services.StarredSource
	remote     services.LovedService
	auth       services.Authorizer
	store      credentials.Store
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	open       shared.BrowserOpener
	sleep      shared.Sleeper
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Local      services.StarredSource
	Remote     services.LovedService
	Authorizer services.Authorizer
	Store      credentials.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Open       shared.BrowserOpener
	Sleep      shared.Sleeper
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Sleep == nil {
		opts.Sleep = shared.Sleep
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		local:      opts.Local,
		remote:     opts.Remote,
		auth:       opts.Authorizer,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		open:       opts.Open,
		sleep:      opts.Sleep,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, diffCommand, authCommand, setupCommand, normalizeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration once per process and applies the verbose flag.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config != nil {
		return nil
	}

	config, path, err := shared.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	r.config = config
	r.configPath = path
	if path == "" {
		r.logger.Debug("no config file found, using defaults and environment")
	} else {
		r.logger.Debug("loaded config", "path", path)
	}
	return nil
}

// setup loads and validates the configuration, then builds every missing collaborator.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	if r.local == nil {
		subsonic, err := services.NewSubsonicService(r.config.Subsonic, r.httpClient)
		if err != nil {
			return err
		}
		if subsonic.Version() != "" {
			r.logger.Debug("configured subsonic version is ignored, the client pins its own", "configured", subsonic.Version())
		}
		r.local = subsonic
	}

	if r.remote == nil || r.auth == nil {
		lastfm, err := services.NewLastFMService(services.LastFMOpts{
			APIKey:         r.config.LastFM.APIKey,
			APISecret:      r.config.LastFM.APISecret,
			HTTPClient:     r.httpClient,
			RequestTimeout: r.config.Sync.CallTimeout(),
		})
		if err != nil {
			return err
		}
		if r.remote == nil {
			r.remote = lastfm
		}
		if r.auth == nil {
			r.auth = lastfm
		}
	}

	if r.store == nil {
		store, err := r.openStore(ctx)
		if err != nil {
			return err
		}
		r.store = store
	}

	return nil
}

func (r *Runner) openStore(ctx context.Context) (credentials.Store, error) {
	if r.config.Session.Store != "sqlite" {
		return credentials.NewFileStore(r.config.LastFM.SessionKeyPath()), nil
	}

	db, err := shared.OpenSessionDatabase(ctx, r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return credentials.NewSQLiteStore(repositories.NewSessionRepository(db), sessionService, r.config.LastFM.Username), nil
}

// close releases the session database, if one was opened.
func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

func (r *Runner) retrier() *shared.Retrier {
	retrier := shared.NewRetrier(r.config.LastFM.Delay(), r.logger)
	retrier.Sleep = r.sleep
	return retrier
}

func (r *Runner) provider() *credentials.Provider {
	return credentials.NewProvider(credentials.ProviderOpts{
		SessionKey: r.config.LastFM.SessionKey,
		Store:      r.store,
		Authorizer: r.auth,
		Retrier:    r.retrier(),
		Open:       r.open,
		Out:        r.output,
		Logger:     r.logger,
	})
}

func (r *Runner) policy(cmd *cli.Command) (identity.Policy, error) {
	name := cmd.String("policy")
	if name == "" {
		name = r.config.Sync.CollisionPolicy
	}
	return identity.ParsePolicy(name)
}

func (r *Runner) engine(cmd *cli.Command, logger *log.Logger) (*tasks.Engine, error) {
	policy, err := r.policy(cmd)
	if err != nil {
		return nil, err
	}

	retrier := r.retrier()
	retrier.Logger = logger

	return tasks.NewEngine(r.local, r.remote, tasks.EngineOpts{
		Username:        r.config.LastFM.Username,
		Policy:          policy,
		RetryLocalFetch: r.config.Sync.RetryLocalFetch,
		CallTimeout:     r.config.Sync.CallTimeout(),
		Retrier:         retrier,
		Limiter:         tasks.NewLimiter(r.config.LastFM.Delay()),
		Logger:          logger,
	}), nil
}

// watchProgress prints updates until the returned stop function is called.
func (r *Runner) watchProgress() (chan<- tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchLocal, tasks.FetchRemote:
				if update.Step == update.Total {
					r.writePlain("%s %s\n", ui.Styles().OK("✓"), update.Message)
				} else {
					r.writePlain("📥 %s\n", update.Message)
				}
			case tasks.Compare:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.RemoveExtra, tasks.AddMissing:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Styles().Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
