package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/instance"
	"github.com/zulandar/multidb/internal/models"
)

func newInstanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Instance provisioning commands",
	}

	cmd.AddCommand(newInstanceCreateCmd())
	cmd.AddCommand(newInstanceListCmd())
	cmd.AddCommand(newInstanceGetCmd())
	cmd.AddCommand(newInstanceCredentialsCmd())
	cmd.AddCommand(newInstanceStatusCmd())
	cmd.AddCommand(newInstanceAssignCmd())
	cmd.AddCommand(newInstanceDeleteCmd())
	return cmd
}

// parseID parses a positive numeric id argument.
func parseID(what, s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(n), nil
}

func newInstanceCreateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		engineName string
		owner      uint
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a database for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceCreate(cmd, configPath, name, engineName, owner)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&engineName, "engine", "", "engine name or code (required)")
	cmd.Flags().UintVar(&owner, "owner", 0, "owning user id (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("engine")
	cmd.MarkFlagRequired("owner")
	return cmd
}

func runInstanceCreate(cmd *cobra.Command, configPath, name, engineName string, owner uint) error {
	et, err := models.ParseEngineType(engineName)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	resp, err := a.instances.Create(context.Background(), instance.CreateRequest{
		Name:       name,
		EngineType: et,
		OwnerID:    owner,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created instance %d (%s) on %s\n", resp.ID, resp.DatabaseName, resp.EngineType)
	if c := resp.Credentials; c != nil {
		fmt.Fprintf(out, "  Username:   %s\n", c.Username)
		fmt.Fprintf(out, "  Password:   %s\n", c.Password)
		fmt.Fprintf(out, "  Connection: %s\n", c.ConnectionString)
	}
	return nil
}

func newInstanceListCmd() *cobra.Command {
	var (
		configPath string
		owner      uint
		engineName string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceList(cmd, configPath, owner, engineName)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().UintVar(&owner, "owner", 0, "only instances owned by this user id")
	cmd.Flags().StringVar(&engineName, "engine", "", "only instances on this engine")
	cmd.MarkFlagsMutuallyExclusive("owner", "engine")
	return cmd
}

func runInstanceList(cmd *cobra.Command, configPath string, owner uint, engineName string) error {
	var et models.EngineType
	if engineName != "" {
		var err error
		if et, err = models.ParseEngineType(engineName); err != nil {
			return err
		}
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var list []instance.Response
	switch {
	case owner != 0:
		list, err = a.instances.ListByOwner(ctx, owner)
	case et != "":
		list, err = a.instances.ListByEngine(ctx, et)
	default:
		list, err = a.instances.List(ctx)
	}
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No instances found.")
		return nil
	}
	return renderTable(cmd.OutOrStdout(), instanceHeader, instanceRows(list))
}

func newInstanceGetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceGet(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runInstanceGet(cmd *cobra.Command, configPath, idArg string) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	resp, err := a.instances.Get(context.Background(), id, 0, true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instance:    %d\n", resp.ID)
	fmt.Fprintf(out, "Name:        %s\n", resp.Name)
	fmt.Fprintf(out, "Engine:      %s\n", resp.EngineType)
	fmt.Fprintf(out, "Status:      %s\n", resp.Status)
	fmt.Fprintf(out, "Database:    %s\n", resp.DatabaseName)
	fmt.Fprintf(out, "Endpoint:    %s:%d\n", resp.Host, resp.Port)
	fmt.Fprintf(out, "Owner:       %s (%d)\n", resp.UserName, resp.UserID)
	fmt.Fprintf(out, "Created:     %s\n", formatTime(&resp.CreatedAt))
	fmt.Fprintf(out, "Last access: %s\n", formatTime(resp.LastAccessedAt))
	return nil
}

func newInstanceCredentialsCmd() *cobra.Command {
	var (
		configPath string
		as         uint
	)

	cmd := &cobra.Command{
		Use:   "credentials <id>",
		Short: "Print an instance's credentials for its owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceCredentials(cmd, configPath, args[0], as)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().UintVar(&as, "as", 0, "requesting user id (required)")
	cmd.MarkFlagRequired("as")
	return cmd
}

func runInstanceCredentials(cmd *cobra.Command, configPath, idArg string, as uint) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	c, err := a.instances.GetCredentials(context.Background(), id, as)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Host:       %s:%d\n", c.Host, c.Port)
	fmt.Fprintf(out, "Database:   %s\n", c.Database)
	fmt.Fprintf(out, "Username:   %s\n", c.Username)
	fmt.Fprintf(out, "Password:   %s\n", c.Password)
	fmt.Fprintf(out, "Connection: %s\n", c.ConnectionString)
	return nil
}

func newInstanceStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set an instance's lifecycle status",
		Long:  "Sets the recorded status of an instance. One of: creating, active, stopped, error, deleted.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceStatus(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runInstanceStatus(cmd *cobra.Command, configPath, idArg, status string) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	if err := a.instances.UpdateStatus(context.Background(), id, models.InstanceStatus(status)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Instance %d is now %s\n", id, status)
	return nil
}

func newInstanceAssignCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign <id> <user-id>",
		Short: "Hand an instance to another user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceAssign(cmd, configPath, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runInstanceAssign(cmd *cobra.Command, configPath, idArg, ownerArg string) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	owner, err := parseID("user id", ownerArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}
	if err := a.instances.AssignToOwner(context.Background(), id, owner); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Instance %d assigned to user %d\n", id, owner)
	return nil
}

func newInstanceDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Drop an instance's database and remove its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstanceDelete(cmd, configPath, args[0], yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runInstanceDelete(cmd *cobra.Command, configPath, idArg string, skipConfirm bool) error {
	id, err := parseID("instance id", idArg)
	if err != nil {
		return err
	}
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	resp, err := a.instances.Get(ctx, id, 0, true)
	if err != nil {
		return err
	}
	if !skipConfirm {
		if !interactive(cmd.InOrStdin()) {
			return fmt.Errorf("stdin is not a terminal; pass --yes to delete instance %d", id)
		}
		warning := fmt.Sprintf("This will drop database %q on %s.", resp.DatabaseName, resp.EngineType)
		if !confirm(cmd, warning) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := a.instances.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted instance %d\n", id)
	return nil
}
