// Package can evaluates the permission matrix offline for a given role set.
package can

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"leadsync/internal/domain/permission"
	vo "leadsync/internal/domain/permission/value_objects"
)

type options struct {
	roles            []string
	userID           int64
	team             []int64
	responsibleID    string
	skipContextCheck bool
	listMatrix       bool
}

func NewCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "can <module> <action>",
		Short: "Evaluate a permission offline",
		Long: `Build the permission matrix from --role values and evaluate MODULE ACTION
for a ticket whose responsible user is --responsible.

Example:
  leadsync can leads edit --role ROLE_LEADS_EDIT_TEAM --user 7 --team 8,9 --responsible 8`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.listMatrix {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), opts, args)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.roles, "role", "r", nil, "Role strings ROLE_{MODULE}_{ACTION}_{LEVEL} (repeatable)")
	cmd.Flags().Int64VarP(&opts.userID, "user", "u", 0, "Id of the evaluating user")
	cmd.Flags().Int64SliceVarP(&opts.team, "team", "t", nil, "Ids of the user's team members")
	cmd.Flags().StringVar(&opts.responsibleID, "responsible", "", "Responsible user id of the ticket (empty when unassigned)")
	cmd.Flags().BoolVar(&opts.skipContextCheck, "skip-context-check", false, "Treat any non-denied level as granted")
	cmd.Flags().BoolVar(&opts.listMatrix, "matrix", false, "Print the built matrix and exit")

	return cmd
}

func run(out io.Writer, opts *options, args []string) error {
	matrix := permission.BuildMatrix(opts.roles)
	if opts.listMatrix {
		_, err := fmt.Fprintln(out, matrix.String())
		return err
	}

	module, err := vo.NewModule(args[0])
	if err != nil {
		return fmt.Errorf("invalid module: %w", err)
	}
	action, err := vo.NewAction(args[1])
	if err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	current := ""
	if opts.userID != 0 {
		current = strconv.FormatInt(opts.userID, 10)
	}
	responsible := strings.TrimSpace(opts.responsibleID)
	// the user counts as their own teammate
	sameTeam := responsible != "" && (responsible == current || slices.ContainsFunc(opts.team, func(id int64) bool {
		return strconv.FormatInt(id, 10) == responsible
	}))

	allowed := permission.Can(matrix,
		permission.Permission{Module: module, Action: action},
		permission.Context{ResponsibleID: responsible, CurrentUserID: current, IsSameTeam: sameTeam},
		permission.Options{SkipContextCheck: opts.skipContextCheck},
	)

	key := module.Key(action)
	_, err = fmt.Fprintf(out, "%s level=%s strict=%t allowed=%t\n",
		key,
		matrix.Level(key),
		permission.HasStrictPermission(opts.roles, module.String(), action.String()),
		allowed,
	)
	return err
}
