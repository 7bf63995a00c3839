package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/incidentauth/internal/cache"
	"github.com/dropDatabas3/incidentauth/internal/config"
	"github.com/dropDatabas3/incidentauth/internal/domain/repository"
	"github.com/dropDatabas3/incidentauth/internal/security/secretbox"
	"github.com/dropDatabas3/incidentauth/internal/store"
	"github.com/dropDatabas3/incidentauth/internal/tenant"
)

// env abre lo que necesita cada comando; close libera todo.
type env struct {
	dal   store.DataAccessLayer
	cache cache.Client // puede ser nil
	close func() error

	// masterKey cifra connection strings (security.secretbox_master_key)
	masterKey string
}

type opener func(ctx context.Context, configPath string) (*env, error)

func openFromConfig(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	dal, err := store.Open(ctx, store.AdapterConfig{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, err
	}

	e := &env{dal: dal, masterKey: cfg.Security.SecretBoxMasterKey, close: dal.Close}
	// sólo redis es compartido con el servicio; el cache en memoria es por proceso
	if cfg.Cache.Kind == "redis" {
		c, err := cache.New(cache.Config{
			Kind:     "redis",
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			_ = dal.Close()
			return nil, fmt.Errorf("cache: %w", err)
		}
		e.cache = c
		e.close = func() error { return errors.Join(c.Close(), dal.Close()) }
	}
	return e, nil
}

func sealConnectionString(masterKey, dsn string) (string, error) {
	if masterKey == "" {
		return "", errors.New("--connection-string requires security.secretbox_master_key (env SECRETBOX_MASTER_KEY)")
	}
	box, err := secretbox.New(masterKey)
	if err != nil {
		return "", err
	}
	return box.Seal(dsn)
}

func newRootCmd(open opener) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "incidentctl",
		Short:         "CLI de operación para incidentauth (migraciones y tenants)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("CONFIG_PATH", "config.yaml"), "path al config.yaml (env CONFIG_PATH)")

	with := func(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
		e, err := open(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer func() { _ = e.close() }()
		return fn(cmd.Context(), e)
	}

	// migrate
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas del store de plataforma",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return with(cmd, func(ctx context.Context, e *env) error {
				m, ok := e.dal.(store.Migratable)
				if !ok {
					return errors.New("driver does not support migrations")
				}
				res, err := m.Migrate(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied=%v skipped=%v\n", res.Applied, res.Skipped)
				return nil
			})
		},
	}

	// tenant
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Alta, listado y baja de tenants",
	}

	var tenantName, tenantConn string
	addCmd := &cobra.Command{
		Use:   "add <tenant-key>",
		Short: "Crea un tenant activo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			name := tenantName
			if name == "" {
				name = key
			}
			return with(cmd, func(ctx context.Context, e *env) error {
				in := repository.CreateTenantInput{TenantKey: key, Name: name}
				if tenantConn != "" {
					sealed, err := sealConnectionString(e.masterKey, tenantConn)
					if err != nil {
						return err
					}
					in.ConnectionString = sealed
				}
				t, err := e.dal.Tenants().Create(ctx, in)
				if repository.IsConflict(err) {
					return fmt.Errorf("tenant %q already exists", key)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created tenant %s (%s)\n", t.TenantKey, t.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&tenantName, "name", "", "nombre visible (default: la key)")
	addCmd.Flags().StringVar(&tenantConn, "connection-string", "", "DSN propio del tenant; se guarda cifrado")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lista los tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return with(cmd, func(ctx context.Context, e *env) error {
				ts, err := e.dal.Tenants().List(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tNAME\tACTIVE\tID")
				for _, t := range ts {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", t.TenantKey, t.Name, t.IsActive, t.ID)
				}
				return tw.Flush()
			})
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable <tenant-key>",
		Short: "Desactiva un tenant (los logins y registros del tenant fallan)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return with(cmd, func(ctx context.Context, e *env) error {
				err := e.dal.Tenants().SetActive(ctx, key, false)
				if repository.IsNotFound(err) {
					return fmt.Errorf("tenant %q not found", key)
				}
				if err != nil {
					return err
				}
				if e.cache != nil {
					if err := tenant.NewResolver(e.dal.Tenants(), e.cache, 0).Invalidate(ctx, key); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache invalidation failed: %v\n", err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "disabled tenant %s\n", key)
				return nil
			})
		},
	}

	tenantCmd.AddCommand(addCmd, listCmd, disableCmd)
	root.AddCommand(migrateCmd, tenantCmd)
	return root
}
