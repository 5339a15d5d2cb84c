// Package client implements the read side of the course marketplace as it is
// consumed by a user interface.
//
// Each query is cached under a key until it is mutated or invalidated, so that
// several components of the interface can ask for the same information
// without reaching the wallet or the ledger again. Failures are kept as an
// explicit error in the result.
package client

import (
	"encoding/hex"
	"sync"

	"github.com/rs/zerolog"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/contracts/course"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

const (
	// AccountsKey is the cache key of the current account.
	AccountsKey = "web3/accounts"

	// NetworkKey is the cache key of the current network.
	NetworkKey = "web3/network"

	ownedCoursesPrefix = "web3/ownedCourses/"
)

// ErrNoAccount is the error of the account when the wallet has no account.
var ErrNoAccount = xerrors.New("no account connected")

// OwnedCoursesKey returns the cache key of the courses owned by the account.
func OwnedCoursesKey(addr crypto.Address) string {
	return ownedCoursesPrefix + addr.String()
}

// Wallet provides the accounts of the user and the network the wallet is
// connected to.
type Wallet interface {
	GetAccounts() ([]crypto.Address, error)

	GetNetwork() (string, error)
}

// Chain provides the view of the purchases.
type Chain interface {
	GetCourseByHash(course.Hash) (course.Course, error)
}

// Account is the result of the account query.
type Account struct {
	Data               crypto.Address
	Err                error
	IsAdmin            bool
	HasInitialResponse bool
}

// Network is the result of the network query.
type Network struct {
	Data               string
	Target             string
	Err                error
	IsSupported        bool
	HasInitialResponse bool
}

// OwnedCourse is a course of the catalogue purchased by the account.
type OwnedCourse struct {
	Entry
	Hash   course.Hash
	Record course.Course
}

// OwnedCourses is the result of the owned courses query.
type OwnedCourses struct {
	Data               []OwnedCourse
	Err                error
	HasInitialResponse bool
}

// WalletInfo combines the account and the network to tell if the user can
// purchase a course.
type WalletInfo struct {
	Account           Account
	Network           Network
	CanPurchaseCourse bool
}

type entry struct {
	value interface{}
	err   error
}

// Client is the client of the course marketplace.
type Client struct {
	sync.Mutex

	wallet Wallet
	chain  Chain
	config Config
	admins map[string]struct{}
	cache  map[string]entry
	logger zerolog.Logger
}

// NewClient creates a new client.
func NewClient(wallet Wallet, chain Chain, cfg Config) *Client {
	return &Client{
		wallet: wallet,
		chain:  chain,
		config: cfg,
		admins: cfg.adminSet(),
		cache:  make(map[string]entry),
		logger: coursemarket.Logger.With().Str("role", "course client").Logger(),
	}
}

// Account returns the current account of the wallet. The account is an
// administrator when the hash of its 20 bytes is in the configuration.
func (c *Client) Account() Account {
	value, err := c.fetch(AccountsKey, func() (interface{}, error) {
		accounts, err := c.wallet.GetAccounts()
		if err != nil {
			return nil, xerrors.Errorf("wallet: %v", err)
		}

		if len(accounts) == 0 {
			return nil, ErrNoAccount
		}

		return accounts[0], nil
	})

	res := Account{
		Err:                err,
		HasInitialResponse: true,
	}

	if err != nil {
		return res
	}

	addr, ok := value.(crypto.Address)
	if !ok {
		res.Err = xerrors.Errorf("invalid account of type '%T'", value)
		return res
	}

	res.Data = addr
	res.IsAdmin = c.isAdmin(addr)

	return res
}

// Network returns the network of the wallet, and if it is the one expected by
// the configuration.
func (c *Client) Network() Network {
	value, err := c.fetch(NetworkKey, func() (interface{}, error) {
		network, err := c.wallet.GetNetwork()
		if err != nil {
			return nil, xerrors.Errorf("wallet: %v", err)
		}

		return network, nil
	})

	res := Network{
		Target:             c.config.Network,
		Err:                err,
		HasInitialResponse: true,
	}

	if err != nil {
		return res
	}

	network, ok := value.(string)
	if !ok {
		res.Err = xerrors.Errorf("invalid network of type '%T'", value)
		return res
	}

	res.Data = network
	res.IsSupported = network == c.config.Network

	return res
}

// OwnedCourses returns the courses of the catalogue that the current account
// has purchased.
func (c *Client) OwnedCourses() OwnedCourses {
	account := c.Account()
	if account.Err != nil {
		return OwnedCourses{
			Err:                xerrors.Errorf("account: %v", account.Err),
			HasInitialResponse: true,
		}
	}

	value, err := c.fetch(OwnedCoursesKey(account.Data), func() (interface{}, error) {
		return c.lookupOwned(account.Data)
	})

	res := OwnedCourses{
		Err:                err,
		HasInitialResponse: true,
	}

	if err != nil {
		return res
	}

	owned, ok := value.([]OwnedCourse)
	if !ok {
		res.Err = xerrors.Errorf("invalid courses of type '%T'", value)
		return res
	}

	res.Data = owned

	return res
}

// WalletInfo returns the account and the network. A course can be purchased
// when an account is connected to the expected network.
func (c *Client) WalletInfo() WalletInfo {
	account := c.Account()
	network := c.Network()

	return WalletInfo{
		Account:           account,
		Network:           network,
		CanPurchaseCourse: account.Err == nil && network.IsSupported,
	}
}

// Mutate replaces the cached value of the key.
func (c *Client) Mutate(key string, value interface{}) {
	c.Lock()
	c.cache[key] = entry{value: value}
	c.Unlock()

	c.logger.Debug().Str("key", key).Msg("cache mutated")
}

// Invalidate drops the cached value of the key so that the next query fetches
// it again.
func (c *Client) Invalidate(key string) {
	c.Lock()
	delete(c.cache, key)
	c.Unlock()
}

// AccountsChanged updates the current account after the wallet notified a
// change.
func (c *Client) AccountsChanged(accounts []crypto.Address) {
	if len(accounts) == 0 {
		c.Lock()
		c.cache[AccountsKey] = entry{err: ErrNoAccount}
		c.Unlock()

		return
	}

	c.Mutate(AccountsKey, accounts[0])
}

func (c *Client) fetch(key string, fn func() (interface{}, error)) (interface{}, error) {
	c.Lock()
	defer c.Unlock()

	e, found := c.cache[key]
	if found {
		return e.value, e.err
	}

	value, err := fn()

	c.cache[key] = entry{value: value, err: err}

	c.logger.Debug().Str("key", key).Err(err).Msg("cache populated")

	return value, err
}

func (c *Client) lookupOwned(addr crypto.Address) ([]OwnedCourse, error) {
	owned := []OwnedCourse{}

	for _, e := range c.config.Courses {
		id, err := e.GetID()
		if err != nil {
			return nil, xerrors.Errorf("course '%s': %v", e.Title, err)
		}

		hash := course.HashOf(id, addr)

		record, err := c.chain.GetCourseByHash(hash)
		if err == course.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, xerrors.Errorf("chain: %v", err)
		}

		if record.Owner != addr {
			continue
		}

		owned = append(owned, OwnedCourse{
			Entry:  e,
			Hash:   hash,
			Record: record,
		})
	}

	return owned, nil
}

func (c *Client) isAdmin(addr crypto.Address) bool {
	digest := crypto.Keccak(addr[:])

	_, found := c.admins["0x"+hex.EncodeToString(digest)]

	return found
}

// staticWallet is a wallet with a fixed list of accounts.
//
// - implements client.Wallet
type staticWallet struct {
	network  string
	accounts []crypto.Address
}

// NewStaticWallet returns a wallet connected to the network with the given
// accounts.
func NewStaticWallet(network string, accounts ...crypto.Address) Wallet {
	return staticWallet{
		network:  network,
		accounts: accounts,
	}
}

// GetAccounts implements client.Wallet. It returns the accounts.
func (w staticWallet) GetAccounts() ([]crypto.Address, error) {
	return w.accounts, nil
}

// GetNetwork implements client.Wallet. It returns the network.
func (w staticWallet) GetNetwork() (string, error) {
	return w.network, nil
}
