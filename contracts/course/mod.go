// Package course implements the native contract of the course marketplace.
//
// A buyer purchases a course by sending its identifier with a proof and the
// price. The purchase is stored under the hash of the identifier and the
// address of the buyer, so that a buyer can purchase a course only once. The
// owner of the contract can then activate or deactivate the purchase, and
// transfer the ownership of the contract to another address.
//
// The state of the contract is stored in its own keyspace:
//
//	course:<hash> -> record
//	index:<i>     -> hash of the i-th purchase
//	count         -> number of purchases
package course

import (
	"encoding/binary"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/coursemarket"
	"go.dedis.ch/coursemarket/core/access"
	"go.dedis.ch/coursemarket/core/execution"
	"go.dedis.ch/coursemarket/core/execution/native"
	"go.dedis.ch/coursemarket/core/store"
	"go.dedis.ch/coursemarket/core/store/prefixed"
	"go.dedis.ch/coursemarket/crypto"
	"golang.org/x/xerrors"
)

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/coursemarket.Course"

	// CmdArg is the argument's name to indicate the kind of command to run on
	// the contract. It should be one of the Command type.
	CmdArg = "course:command"

	// IDArg is the argument's name of the course identifier.
	IDArg = "course:id"

	// ProofArg is the argument's name of the proof of a purchase.
	ProofArg = "course:proof"

	// ValueArg is the argument's name of the amount paid for a purchase, as a
	// decimal number.
	ValueArg = "course:value"

	// HashArg is the argument's name of the hash of a purchase.
	HashArg = "course:hash"

	// OwnerArg is the argument's name of the new owner of the contract.
	OwnerArg = "course:owner"
)

// Command defines a type of command for the course contract.
type Command string

const (
	// CmdPurchase defines the command to purchase a course.
	CmdPurchase Command = "PURCHASE"

	// CmdActivate defines the command to activate a purchased course.
	CmdActivate Command = "ACTIVATE"

	// CmdDeactivate defines the command to deactivate a course.
	CmdDeactivate Command = "DEACTIVATE"

	// CmdTransferOwnership defines the command to give the contract to a new
	// owner.
	CmdTransferOwnership Command = "TRANSFER_OWNERSHIP"
)

var (
	coursePrefix = []byte("course:")
	indexPrefix  = []byte("index:")
	countKey     = []byte("count")

	ownerID = []byte(ContractName)
)

var promCommands = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "coursemarket_course_commands_total",
	Help: "total number of commands executed by the course contract",
}, []string{"command", "status"})

func init() {
	coursemarket.PromCollectors = append(coursemarket.PromCollectors, promCommands)
}

// AccessService is the access service that keeps track of the owner of the
// contract.
type AccessService interface {
	access.Service

	// GetOwner returns the address of the owner of the credential.
	GetOwner(store.Readable, access.Credential) (crypto.Address, error)

	// Transfer replaces the owner of the credential when the identity is the
	// current owner.
	Transfer(store.Snapshot, access.Credential, access.Identity, crypto.Address) error
}

// NewCreds returns the credential of the contract owner for the given rule.
func NewCreds(rule string) access.Credential {
	return access.NewContractCreds(ownerID, ContractName, rule)
}

// RegisterContract registers the course contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) error {
	err := exec.Set(ContractName, c)
	if err != nil {
		return xerrors.Errorf("failed to register: %v", err)
	}

	return nil
}

// Deploy sets the owner of the contract. It fails if the contract has already
// been deployed.
func Deploy(snap store.Snapshot, srvc AccessService, deployer access.Identity) error {
	err := srvc.Grant(snap, NewCreds("deploy"), deployer)
	if err != nil {
		return xerrors.Errorf("failed to grant owner: %v", err)
	}

	return nil
}

// Contract is the course marketplace contract.
//
// - implements native.Contract
type Contract struct {
	access AccessService
	logger zerolog.Logger
}

// NewContract creates a new course contract.
func NewContract(srvc AccessService) Contract {
	return Contract{
		access: srvc,
		logger: coursemarket.Logger.With().Str("contract", "course").Logger(),
	}
}

// Execute implements native.Contract. It runs the appropriate command. None of
// the writes must be kept when it returns an error.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := Command(step.Current.GetArg(CmdArg))

	err := c.execute(snap, step, cmd)

	status := "accepted"
	if err != nil {
		status = "refused"
	}

	promCommands.WithLabelValues(string(cmd), status).Inc()

	return err
}

func (c Contract) execute(snap store.Snapshot, step execution.Step, cmd Command) error {
	switch cmd {
	case "":
		return xerrors.Errorf("'%s' not found in tx arg", CmdArg)
	case CmdPurchase:
		err := c.purchase(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to PURCHASE: %v", err)
		}
	case CmdActivate:
		err := c.activate(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to ACTIVATE: %v", err)
		}
	case CmdDeactivate:
		err := c.deactivate(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to DEACTIVATE: %v", err)
		}
	case CmdTransferOwnership:
		err := c.transferOwnership(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to TRANSFER_OWNERSHIP: %v", err)
		}
	default:
		return xerrors.Errorf("unknown command: %s", cmd)
	}

	return nil
}

func (c Contract) purchase(snap store.Snapshot, step execution.Step) error {
	id, err := NewID(step.Current.GetArg(IDArg))
	if err != nil {
		return xerrors.Errorf("'%s': %v", IDArg, err)
	}

	proof, err := NewProof(step.Current.GetArg(ProofArg))
	if err != nil {
		return xerrors.Errorf("'%s': %v", ProofArg, err)
	}

	price, err := parseValue(step.Current.GetArg(ValueArg))
	if err != nil {
		return xerrors.Errorf("'%s': %v", ValueArg, err)
	}

	buyer, err := crypto.AddressOf(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("invalid identity: %v", err)
	}

	hash := HashOf(id, buyer)

	state := prefixed.NewSnapshot(ContractName, snap)

	_, found, err := readCourse(state, hash)
	if err != nil {
		return err
	}

	if found {
		return xerrors.Errorf("course %v already has an owner", hash)
	}

	count, err := readCount(state)
	if err != nil {
		return err
	}

	course := Course{
		Index: count,
		ID:    id,
		Price: price,
		Proof: proof,
		Owner: buyer,
		State: Purchased,
	}

	err = writeCourse(state, hash, course)
	if err != nil {
		return err
	}

	err = state.Set(indexKey(count), hash[:])
	if err != nil {
		return xerrors.Errorf("failed to write index: %v", err)
	}

	err = state.Set(countKey, encodeUint64(count+1))
	if err != nil {
		return xerrors.Errorf("failed to write count: %v", err)
	}

	c.logger.Info().
		Stringer("hash", hash).
		Stringer("buyer", buyer).
		Uint64("price", price).
		Msg("course purchased")

	return nil
}

func (c Contract) activate(snap store.Snapshot, step execution.Step) error {
	err := c.access.Match(snap, NewCreds("activate"), step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("only owner: %v", err)
	}

	hash, course, state, err := c.loadCourse(snap, step)
	if err != nil {
		return err
	}

	if course.State != Purchased {
		return xerrors.Errorf("course %v has invalid state '%v'", hash, course.State)
	}

	course.State = Activated

	err = writeCourse(state, hash, course)
	if err != nil {
		return err
	}

	c.logger.Info().Stringer("hash", hash).Msg("course activated")

	return nil
}

func (c Contract) deactivate(snap store.Snapshot, step execution.Step) error {
	err := c.access.Match(snap, NewCreds("deactivate"), step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("only owner: %v", err)
	}

	hash, course, state, err := c.loadCourse(snap, step)
	if err != nil {
		return err
	}

	if course.State == Deactivated {
		return xerrors.Errorf("course %v has invalid state '%v'", hash, course.State)
	}

	course.State = Deactivated
	course.Price = 0

	err = writeCourse(state, hash, course)
	if err != nil {
		return err
	}

	c.logger.Info().Stringer("hash", hash).Msg("course deactivated")

	return nil
}

func (c Contract) transferOwnership(snap store.Snapshot, step execution.Step) error {
	to, err := crypto.NewAddress(step.Current.GetArg(OwnerArg))
	if err != nil {
		return xerrors.Errorf("'%s': %v", OwnerArg, err)
	}

	err = c.access.Transfer(snap, NewCreds("transfer"), step.Current.GetIdentity(), to)
	if err != nil {
		return xerrors.Errorf("only owner: %v", err)
	}

	c.logger.Info().Stringer("owner", to).Msg("ownership transferred")

	return nil
}

func (c Contract) loadCourse(snap store.Snapshot, step execution.Step) (Hash, Course, store.Snapshot, error) {
	hash, err := NewHash(step.Current.GetArg(HashArg))
	if err != nil {
		return hash, Course{}, nil, xerrors.Errorf("'%s': %v", HashArg, err)
	}

	state := prefixed.NewSnapshot(ContractName, snap)

	course, found, err := readCourse(state, hash)
	if err != nil {
		return hash, Course{}, nil, err
	}

	if !found {
		return hash, Course{}, nil, xerrors.Errorf("course %v not found", hash)
	}

	return hash, course, state, nil
}

func parseValue(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, nil
	}

	value, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("invalid value: %v", err)
	}

	return value, nil
}

func courseKey(hash Hash) []byte {
	return append(append([]byte{}, coursePrefix...), hash[:]...)
}

func indexKey(index uint64) []byte {
	return append(append([]byte{}, indexPrefix...), encodeUint64(index)...)
}

func encodeUint64(value uint64) []byte {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	return buffer
}

func readCourse(r store.Readable, hash Hash) (Course, bool, error) {
	data, err := r.Get(courseKey(hash))
	if err != nil {
		return Course{}, false, xerrors.Errorf("failed to read course: %v", err)
	}

	if data == nil {
		return Course{}, false, nil
	}

	var course Course

	err = course.UnmarshalBinary(data)
	if err != nil {
		return Course{}, false, xerrors.Errorf("corrupted course: %v", err)
	}

	return course, true, nil
}

func writeCourse(w store.Writable, hash Hash, course Course) error {
	data, err := course.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("failed to marshal course: %v", err)
	}

	err = w.Set(courseKey(hash), data)
	if err != nil {
		return xerrors.Errorf("failed to write course: %v", err)
	}

	return nil
}

func readCount(r store.Readable) (uint64, error) {
	data, err := r.Get(countKey)
	if err != nil {
		return 0, xerrors.Errorf("failed to read count: %v", err)
	}

	if len(data) != 8 {
		return 0, nil
	}

	return binary.LittleEndian.Uint64(data), nil
}
