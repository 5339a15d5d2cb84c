// Package controller implements the initializer that opens the key/value
// database of the node.
package controller

import (
	"path/filepath"

	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/cli"
	"go.dedis.ch/coursemarket/cli/node"
	"go.dedis.ch/coursemarket/core/store/kv"
	"golang.org/x/xerrors"
)

// DBName is the name of the database file inside the configuration folder.
const DBName = "course.db"

// miniController is the initializer of the database. It opens the database
// file in the configuration folder and injects it.
//
// - implements node.Initializer
type miniController struct{}

// NewController returns a new initializer for the database.
func NewController() node.Initializer {
	return miniController{}
}

// SetCommands implements node.Initializer. The database has no command.
func (m miniController) SetCommands(builder node.Builder) {}

// OnStart implements node.Initializer. It opens the database and injects it.
func (m miniController) OnStart(flags cli.Flags, inj node.Injector) error {
	path := filepath.Join(flags.String("config"), DBName)

	db, err := kv.New(path)
	if err != nil {
		return xerrors.Errorf("db: %v", err)
	}

	coursemarket.Logger.Debug().Str("path", path).Msg("database opened")

	inj.Inject(db)

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (m miniController) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("while closing db: %v", err)
	}

	return nil
}
