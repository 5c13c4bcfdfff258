package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/smnsjas/go-dspace/model"
	"github.com/smnsjas/go-dspace/resource"
)

// action wraps a command body with client setup. Commands that talk to the
// repository log in automatically when an e-mail is configured.
func action(autoLogin bool, fn func(c *cli.Context, s *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s := getSession(c)
		if s == nil {
			return errors.New("internal error: no session")
		}
		if err := s.connect(c.Context, c.App.ErrWriter, autoLogin); err != nil {
			return err
		}
		return fn(c, s)
	}
}

// queryFlags are accepted by every command that lists or gets objects.
func queryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "maximum number of results"},
		&cli.IntFlag{Name: "offset", Usage: "number of results to skip"},
		&cli.StringSliceFlag{Name: "expand", Aliases: []string{"x"}, Usage: "inline related objects, e.g. metadata,bitstreams"},
	}
}

func query(c *cli.Context) *resource.Query {
	q := &resource.Query{
		Expand: c.StringSlice("expand"),
		Limit:  c.Int("limit"),
		Offset: c.Int("offset"),
	}
	if len(q.Expand) == 0 && q.Limit == 0 && q.Offset == 0 {
		return nil
	}
	return q
}

func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s): %s", c.Command.FullName(), n, c.Command.ArgsUsage)
	}
	return nil
}

func idArg(c *cli.Context, i int) model.ID {
	return model.ID(c.Args().Get(i))
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show API status and the authenticated user",
		Action: action(true, func(c *cli.Context, s *session) error {
			status, err := s.client.Root().Status(c.Context)
			if err != nil {
				return err
			}
			return s.print(c, status)
		}),
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and print the session token for use with --token",
		Action: action(false, func(c *cli.Context, s *session) error {
			token, err := s.login(c.Context, c.App.ErrWriter)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, token)
			return err
		}),
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Invalidate the session token given with --token",
		Action: action(false, func(c *cli.Context, s *session) error {
			if !s.client.IsAuthenticated() {
				return errors.New("logout: no token; set --token or DSPACE_TOKEN")
			}
			return s.client.Logout(c.Context)
		}),
	}
}

func communitiesCommand() *cli.Command {
	return &cli.Command{
		Name:    "communities",
		Aliases: []string{"comm"},
		Usage:   "Browse communities",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all communities",
				Flags: queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					list, err := s.client.Communities().List(c.Context, query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
			{
				Name:  "top",
				Usage: "List top-level communities",
				Flags: queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					list, err := s.client.Communities().TopCommunities(c.Context, query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a community",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					comm, err := s.client.Communities().Get(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, comm)
				}),
			},
			{
				Name:      "collections",
				Usage:     "List the collections of a community",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					list, err := s.client.Communities().Collections(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
		},
	}
}

func collectionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "collections",
		Aliases: []string{"coll"},
		Usage:   "Browse collections",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all collections",
				Flags: queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					list, err := s.client.Collections().List(c.Context, query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
			{
				Name:      "get",
				Usage:     "Show a collection",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					coll, err := s.client.Collections().Get(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, coll)
				}),
			},
			{
				Name:      "items",
				Usage:     "List the items of a collection",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					list, err := s.client.Collections().Items(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
		},
	}
}

func itemsCommand() *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "Browse items",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show an item",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					item, err := s.client.Items().Get(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, item)
				}),
			},
			{
				Name:      "metadata",
				Usage:     "List the metadata of an item",
				ArgsUsage: "ID",
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					md, err := s.client.Items().Metadata(c.Context, idArg(c, 0))
					if err != nil {
						return err
					}
					return s.print(c, md)
				}),
			},
			{
				Name:      "bitstreams",
				Usage:     "List the files of an item",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					list, err := s.client.Items().Bitstreams(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
			{
				Name:      "find",
				Usage:     "Find items by exact metadata value",
				ArgsUsage: "KEY VALUE",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					entry := model.MetadataEntry{Key: c.Args().Get(0), Value: c.Args().Get(1)}
					list, err := s.client.Items().FindByMetadataField(c.Context, entry, query(c))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
		},
	}
}

func bitstreamsCommand() *cli.Command {
	return &cli.Command{
		Name:    "bitstreams",
		Aliases: []string{"bs"},
		Usage:   "Inspect and download files",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a bitstream",
				ArgsUsage: "ID",
				Flags:     queryFlags(),
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					bs, err := s.client.Bitstreams().Get(c.Context, idArg(c, 0), query(c))
					if err != nil {
						return err
					}
					return s.print(c, bs)
				}),
			},
			{
				Name:      "policies",
				Usage:     "List the access policies of a bitstream",
				ArgsUsage: "ID",
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 1); err != nil {
						return err
					}
					list, err := s.client.Bitstreams().Policies(c.Context, idArg(c, 0))
					if err != nil {
						return err
					}
					return s.print(c, list)
				}),
			},
			{
				Name:      "download",
				Usage:     `Save the content of a bitstream to FILE ("-" for stdout)`,
				ArgsUsage: "ID FILE",
				Action: action(true, func(c *cli.Context, s *session) error {
					if err := requireArgs(c, 2); err != nil {
						return err
					}
					return download(c, s, idArg(c, 0), c.Args().Get(1))
				}),
			},
		},
	}
}

func download(c *cli.Context, s *session, id model.ID, path string) (err error) {
	rc, err := s.client.Bitstreams().Retrieve(c.Context, id)
	if err != nil {
		return err
	}
	defer rc.Close()

	var w io.Writer = c.App.Writer
	if path != "-" {
		f, ferr := os.Create(path)
		if ferr != nil {
			return fmt.Errorf("download: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("download: %w", cerr)
			}
			// A partial file must not look like a finished download.
			if err != nil {
				_ = os.Remove(path)
			}
		}()
		w = f
	}

	n, err := io.Copy(w, rc)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	s.logger.Info("bitstream downloaded", "id", id, "bytes", n, "path", path)
	return nil
}

func handleCommand() *cli.Command {
	return &cli.Command{
		Name:      "handle",
		Usage:     "Resolve a persistent handle",
		ArgsUsage: "PREFIX/SUFFIX",
		Flags:     queryFlags(),
		Action: action(true, func(c *cli.Context, s *session) error {
			if err := requireArgs(c, 1); err != nil {
				return err
			}
			prefix, suffix, err := resource.SplitHandle(c.Args().Get(0))
			if err != nil {
				return err
			}
			obj, err := s.client.Handle().Resolve(c.Context, prefix, suffix, query(c))
			if err != nil {
				return err
			}
			return s.print(c, obj)
		}),
	}
}
