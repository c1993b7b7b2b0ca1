/*
Package cli holds helpers shared by the chatrelay commands.

Errors:

ConfigError and CommandError carry the exit code the process should return.
ExitCode maps any error to one:

	if err := root.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Output:

Commands that print structured results (validate, version) accept
--format text|json:

	formatter, err := cli.NewFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), info)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// ctx is cancelled on the first SIGINT/SIGTERM; a second one exits.
*/
package cli
