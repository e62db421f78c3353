package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/config"
	"github.com/mit-pdos/go-nanofs/disk"
	"github.com/mit-pdos/go-nanofs/nanofs"
	"github.com/mit-pdos/go-nanofs/snapshot"
	"github.com/mit-pdos/go-nanofs/util"
)

func main() {
	app := cli.App{
		Name:        "nanofs",
		Usage:       "manage a nanofs volume image",
		Description: "a command line interface to a flat-namespace nanofs volume",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file (default $NANOFS_CONFIG_FILE or " + config.DefaultFile() + ")",
			},
			&cli.StringFlag{
				Name:  "disk",
				Usage: "path of the volume image",
			},
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "debug print verbosity",
			},
		},
		Commands: []*cli.Command{{
			Name:        "mkfs",
			Aliases:     []string{"format"},
			Description: "create or extend the image and format a fresh volume",
			Flags: []cli.Flag{
				&cli.Uint64Flag{
					Name:  "size",
					Usage: "device size in bytes (defaults to diskBlocks blocks)",
				},
			},
			Action: func(ctx *cli.Context) error {
				c, err := loadConfig(ctx)
				if err != nil {
					return err
				}
				size := c.DiskBlocks * common.BlockSize
				if ctx.IsSet("size") {
					size = ctx.Uint64("size")
				}
				d, err := disk.NewFileDisk(c.Disk, size/common.BlockSize)
				if err != nil {
					return fmt.Errorf("opening disk `%s`: %w", c.Disk, err)
				}
				defer d.Close()
				return nanofs.MkFsState(d).Mkfs(size)
			},
		}, {
			Name:        "info",
			Description: "print the superblock and free counts as JSON",
			Action: withFs(func(fs *nanofs.FsState, ctx *cli.Context) error {
				sb, err := fs.Superblock()
				if err != nil {
					return err
				}
				return printJSON(struct {
					Superblock interface{} `json:"superblock"`
					FreeInodes uint64      `json:"freeInodes"`
					FreeBlocks uint64      `json:"freeBlocks"`
				}{sb, fs.FreeInodes(), fs.FreeBlocks()})
			}),
		}, {
			Name:        "ls",
			Aliases:     []string{"list"},
			Description: "list files",
			Action: withFs(func(fs *nanofs.FsState, ctx *cli.Context) error {
				fis, err := fs.List()
				if err != nil {
					return err
				}
				for _, fi := range fis {
					fmt.Printf("%d\t%d\t%s\n", fi.Inum, fi.Size, fi.Name)
				}
				return nil
			}),
		}, {
			Name:        "put",
			Aliases:     []string{"cp"},
			Usage:       "put LOCAL [NAME]",
			Description: "copy a local file into the volume",
			Action: withFs(func(fs *nanofs.FsState, ctx *cli.Context) error {
				local := ctx.Args().Get(0)
				if local == "" {
					return fmt.Errorf("missing LOCAL argument")
				}
				name := ctx.Args().Get(1)
				if name == "" {
					name = filepath.Base(local)
				}
				data, err := ioutil.ReadFile(local)
				if err != nil {
					return fmt.Errorf("reading `%s`: %w", local, err)
				}
				fd, err := fs.Create(name)
				if err != nil {
					return err
				}
				defer fs.Close(fd)
				if _, err := fs.Write(fd, data); err != nil {
					return fmt.Errorf("writing `%s`: %w", name, err)
				}
				return nil
			}),
		}, {
			Name:        "cat",
			Usage:       "cat NAME",
			Description: "write a file to stdout",
			Action: withFs(func(fs *nanofs.FsState, ctx *cli.Context) error {
				fd, err := fs.Open(ctx.Args().Get(0))
				if err != nil {
					return err
				}
				defer fs.Close(fd)
				p := make([]byte, common.BlockSize)
				for {
					n, err := fs.Read(fd, p)
					if err != nil {
						return err
					}
					if n == 0 {
						return nil
					}
					if _, err := os.Stdout.Write(p[:n]); err != nil {
						return fmt.Errorf("writing to stdout: %w", err)
					}
				}
			}),
		}, {
			Name:        "rm",
			Aliases:     []string{"unlink", "delete"},
			Usage:       "rm NAME",
			Description: "remove a file",
			Action: withFs(func(fs *nanofs.FsState, ctx *cli.Context) error {
				return fs.Unlink(ctx.Args().Get(0))
			}),
		}, {
			Name:        "push",
			Description: "upload the image to s3://BUCKET/KEY",
			Action: withRemote(func(d disk.Disk, store snapshot.ObjectStore,
				c *config.Config, ctx *cli.Context) error {
				return snapshot.Push(ctx.Context, d, store, c.Bucket, c.Key)
			}),
		}, {
			Name:        "pull",
			Description: "replace the image with s3://BUCKET/KEY",
			Action: withRemote(func(d disk.Disk, store snapshot.ObjectStore,
				c *config.Config, ctx *cli.Context) error {
				return snapshot.Pull(ctx.Context, d, store, c.Bucket, c.Key)
			}),
		}},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	var c *config.Config
	var err error
	if f := ctx.String("config"); f != "" {
		c, err = config.LoadFile(f)
	} else {
		c, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("disk") {
		c.Disk = ctx.String("disk")
	}
	if ctx.IsSet("debug") {
		c.Debug = ctx.Uint64("debug")
	}
	util.SetDebug(c.Debug)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// openDisk opens an existing image at its current size, so images formatted
// with mkfs --size are never truncated. A missing image gets diskBlocks
// blocks.
func openDisk(c *config.Config) (disk.Disk, error) {
	nblks := c.DiskBlocks
	if st, err := os.Stat(c.Disk); err == nil && st.Size() >= int64(common.BlockSize) {
		nblks = uint64(st.Size()) / common.BlockSize
	}
	d, err := disk.NewFileDisk(c.Disk, nblks)
	if err != nil {
		return nil, fmt.Errorf("opening disk `%s`: %w", c.Disk, err)
	}
	return d, nil
}

// withFs mounts the volume around f and unmounts it afterwards, so f must
// close every handle it opens.
func withFs(f func(*nanofs.FsState, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		c, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		d, err := openDisk(c)
		if err != nil {
			return err
		}
		defer d.Close()
		fs := nanofs.MkFsState(d)
		if err := fs.Mount(); err != nil {
			return fmt.Errorf("mounting `%s`: %w", c.Disk, err)
		}
		defer func() {
			if uerr := fs.Unmount(); uerr != nil && err == nil {
				err = fmt.Errorf("unmounting `%s`: %w", c.Disk, uerr)
			}
		}()
		return f(fs, ctx)
	}
}

func withRemote(
	f func(disk.Disk, snapshot.ObjectStore, *config.Config, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		if err := c.ValidateRemote(); err != nil {
			return err
		}
		sess, err := session.NewSession()
		if err != nil {
			return fmt.Errorf("creating AWS session: %w", err)
		}
		d, err := openDisk(c)
		if err != nil {
			return err
		}
		defer d.Close()
		return f(d, &snapshot.S3ObjectStore{Client: s3.New(sess)}, c, ctx)
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling to JSON: %w", err)
	}
	if _, err := fmt.Printf("%s\n", data); err != nil {
		return fmt.Errorf("writing JSON to stdout: %w", err)
	}
	return nil
}
