// Command testdb inspects and manages the disposable databases used by the
// bookstore tests.
package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/alecthomas/kingpin.v2"

	"bookdata/pkg/common"
	"bookdata/pkg/common/config"
	"bookdata/pkg/common/database"
	"bookdata/pkg/common/logger"
	"bookdata/pkg/datalayer"
	"bookdata/pkg/testsupport"
)

// arguments represents parsed command-line parameters.
type arguments struct {
	configDir string
	command   string
	class     string
	method    string
	clean     bool
}

func parseArgs(args []string) (*arguments, error) {
	app := kingpin.New("testdb", "Manage the per-test databases of the bookstore data layer.")
	app.Version("0.1.0")
	configDir := app.Flag("config", "Directory holding appsettings.json (searched upwards from the working directory by default).").String()

	list := app.Command("list", "List unit test databases.")
	wipe := app.Command("wipe", "Drop every unit test database.")

	identity := app.Command("identity", "Print the database a test class or method would use.")
	identityClass := identity.Arg("class", "Test class name.").Required().String()
	identityMethod := identity.Arg("method", "Test method name.").String()

	create := app.Command("create", "Create the database of a test class or method with the bookstore schema.")
	createClass := create.Arg("class", "Test class name.").Required().String()
	createMethod := create.Arg("method", "Test method name.").String()
	createClean := create.Flag("clean", "Empty the database if it already exists.").Bool()

	drop := app.Command("drop", "Drop the database of a test class or method.")
	dropClass := drop.Arg("class", "Test class name.").Required().String()
	dropMethod := drop.Arg("method", "Test method name.").String()

	command, err := app.Parse(args)
	if err != nil {
		return nil, err
	}

	a := &arguments{configDir: *configDir, command: command}
	switch command {
	case list.FullCommand(), wipe.FullCommand():
	case identity.FullCommand():
		a.class, a.method = *identityClass, *identityMethod
	case create.FullCommand():
		a.class, a.method, a.clean = *createClass, *createMethod, *createClean
	case drop.FullCommand():
		a.class, a.method = *dropClass, *dropMethod
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
	return a, nil
}

func (a *arguments) builder() (*testsupport.Builder, error) {
	settings, err := config.Load(a.configDir)
	if err != nil {
		return nil, err
	}
	err = common.InitLoggerWithConfig(&logger.Config{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Output: settings.Logging.Output,
	})
	if err != nil {
		return nil, err
	}
	return testsupport.NewBuilder(settings)
}

func (a *arguments) execute(out io.Writer) (err error) {
	b, err := a.builder()
	if err != nil {
		return err
	}
	log := common.GetLogger()

	switch a.command {
	case "list":
		names, err := database.ListCatalogs(b.Template(), b.Prefix())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil

	case "wipe":
		dropped, err := b.DeleteAll()
		for _, name := range dropped {
			fmt.Fprintf(out, "dropped %s\n", name)
		}
		return err

	case "identity":
		d, err := b.Descriptor(testsupport.DeriveIdentity(a.class, a.method))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, d.Redacted())
		return nil
	}

	opts, err := b.Options(testsupport.DeriveIdentity(a.class, a.method),
		database.WithModels(datalayer.Models()...), database.WithTracking(database.Untracked))
	if err != nil {
		return err
	}
	h, err := database.Open(opts)
	if err != nil {
		return err
	}
	defer closeInto(h, &err)
	catalog := opts.Descriptor().Catalog

	switch a.command {
	case "create":
		if a.clean {
			if err := h.Lifecycle().EnsureClean(); err != nil {
				return err
			}
			fmt.Fprintf(out, "cleaned %s\n", catalog)
			return nil
		}
		created, err := h.Lifecycle().EnsureCreated()
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "created %s\n", catalog)
		} else {
			fmt.Fprintf(out, "%s already exists\n", catalog)
		}

	case "drop":
		deleted, err := h.Lifecycle().EnsureDeleted()
		if err != nil {
			return err
		}
		if deleted {
			fmt.Fprintf(out, "dropped %s\n", catalog)
		} else {
			fmt.Fprintf(out, "%s does not exist\n", catalog)
		}
	}
	log.Debug().Str("command", a.command).Str("catalog", catalog).Msg("done")
	return nil
}

// closeInto closes c and records its error in *err unless *err is already set.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close handle: %w", cerr)
	}
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("failed to parse arguments, %s, try --help", err)
	}
	if err := args.execute(os.Stdout); err != nil {
		kingpin.Fatalf("%s", err)
	}
}
