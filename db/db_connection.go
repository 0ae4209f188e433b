package db

import (
	"fmt"

	"github.com/sirupsen/logrus"
	rethink "gopkg.in/gorethink/gorethink.v3"
)

const baseDbPoolConnections int = 2
const maxDbPoolConnections int = 20

//Connection contains a handle to the database
type Connection struct {
	session *rethink.Session
	exec    rethink.QueryExecutor
}

//Init creates a new connection pool for the rethinkdb instance at addr, making sure the database and tables exist
func Init(addr, dbName string) (*Connection, error) {
	if addr == "" {
		return nil, fmt.Errorf("no rethinkdb address was provided")
	}
	//Create new connection pool to db
	session, err := rethink.Connect(rethink.ConnectOpts{
		Address:    addr,
		Database:   dbName,
		InitialCap: baseDbPoolConnections,
		MaxOpen:    maxDbPoolConnections,
	})
	if err != nil {
		logrus.Errorf("Failed to create connection to rethinkdb instance at address %v because %v.", addr, err)
		return nil, fmt.Errorf("failed to create connection to rethinkdb instance at address %v: %w", addr, err)
	}

	res := Connection{
		session: session,
		exec:    session,
	}

	//Ensure database and required tables exist, and wait for it all to be ready
	res.CreateDatabase(dbName)
	res.CreateTables()

	return &res, nil
}

//Close cleanly terminates the database connection
func (db *Connection) Close() {
	logrus.Info("Terminating DB connection...")
	if db.session != nil {
		_ = db.session.Close()
	}
}

//CreateTables ensures all tables and indexes needed exist.
func (db *Connection) CreateTables() {
	//guild settings table
	_, err := rethink.TableCreate(settingsTable, rethink.TableCreateOpts{
		PrimaryKey: "id",
	}).RunWrite(db.exec)
	if err != nil {
		logrus.Debugf("Did not create settings table: %v", err)
	}
	//permission bindings table
	_, err = rethink.TableCreate(permissionsTable, rethink.TableCreateOpts{
		PrimaryKey: "id",
	}).RunWrite(db.exec)
	if err != nil {
		logrus.Debugf("Did not create permissions table: %v", err)
	}
	//Wait for all tables
	_, _ = rethink.Table(settingsTable).Wait().Run(db.exec)
	_, _ = rethink.Table(permissionsTable).Wait().Run(db.exec)

	_, err = rethink.Table(permissionsTable).IndexCreateFunc(permissionsGuildIndex, func(row rethink.Term) interface{} {
		return row.Field("id").Nth(0)
	}).RunWrite(db.exec)
	if err != nil {
		logrus.Debugf("Did not create %v index: %v", permissionsGuildIndex, err)
	}
	_, _ = rethink.Table(permissionsTable).IndexWait(permissionsGuildIndex).Run(db.exec)
}

//CreateDatabase ensures the database exists
func (db *Connection) CreateDatabase(dbName string) {
	_, err := rethink.DBCreate(dbName).RunWrite(db.exec)
	if err != nil {
		logrus.Debugf("Did not create %v DB: %v", dbName, err)
	}
	_, _ = rethink.DB(dbName).Wait().Run(db.exec)
}
