package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/quill/internal/app"
)

func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Write the document to this file instead of stdout")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, frames)")
	cmd.Flags().BoolP("no-cache", "n", false, "Ignore results of previous compilations")
}

func compileOptions(cmd *cobra.Command) app.CompileOptions {
	output, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	return app.CompileOptions{Output: output, Format: format, NoCache: noCache}
}

func (c *CLI) newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a document once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Compile(cmd.Context(), args[0], compileOptions(cmd))
		},
	}
	addCompileFlags(cmd)
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Compile a document and recompile it whenever its files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), args[0], compileOptions(cmd))
		},
	}
	addCompileFlags(cmd)
	return cmd
}
