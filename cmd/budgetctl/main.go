// Command budgetctl runs maintenance jobs against the DuoBudget database:
// schema migrations and the monthly carryover of children's allowances.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"duobudget/internal/config"
	"duobudget/internal/database"
	"duobudget/internal/logger"
)

// openDB connects to the configured database and returns a close func.
// Tests swap it for an in-memory database.
var openDB = func(cfg *config.Config) (*gorm.DB, func(), error) {
	mgr, err := database.NewManager(&cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	return mgr.DB(), func() {
		if err := mgr.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries the settings shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "budgetctl",
		Short: "DuoBudget maintenance commands",
		Long: `budgetctl applies database migrations and closes children's monthly
allowances by carrying the unspent amount into the next month.

Database settings come from the same environment as the API (DB_HOST, ...)
and can be overridden with a config file or BUDGETCTL_DB_* variables.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initConfig,
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default: ./budgetctl.yaml or $HOME/.config/duobudget/budgetctl.yaml)")
	root.PersistentFlags().String("migrations", database.DefaultMigrationsSource, "migrations source URL")
	root.PersistentFlags().String("env", "", "environment name, overrides ENV")
	_ = c.v.BindPFlag("migrations", root.PersistentFlags().Lookup("migrations"))
	_ = c.v.BindPFlag("env", root.PersistentFlags().Lookup("env"))

	root.AddCommand(c.migrateCmd())
	root.AddCommand(c.carryoverCmd())
	return root
}

func (c *cli) initConfig(_ *cobra.Command, _ []string) error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.SetConfigName("budgetctl")
		c.v.SetConfigType("yaml")
		c.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(home, ".config", "duobudget"))
		}
	}

	c.v.SetEnvPrefix("BUDGETCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(c.env())
	return nil
}

func (c *cli) env() string {
	if env := c.v.GetString("env"); env != "" {
		return env
	}
	return os.Getenv("ENV")
}

// loadConfig builds the API configuration and layers the viper db.* keys
// on top of it.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if env := c.v.GetString("env"); env != "" {
		cfg.Env = env
	}

	overrides := map[string]*string{
		"db.host":     &cfg.DB.Host,
		"db.port":     &cfg.DB.Port,
		"db.user":     &cfg.DB.User,
		"db.password": &cfg.DB.Password,
		"db.name":     &cfg.DB.DBName,
		"db.sslmode":  &cfg.DB.SSLMode,
	}
	for key, field := range overrides {
		if value := c.v.GetString(key); value != "" {
			*field = value
		}
	}
	return cfg, nil
}

// withDB loads the configuration, opens the database and runs fn.
func (c *cli) withDB(fn func(cfg *config.Config, db *gorm.DB) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	db, closeDB, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeDB()
	return fn(cfg, db)
}
