// Package encoding provides fixed-layout byte serialization and deserialization
// of quest program accounts and events.
//
// Every record starts with an 8 byte discriminator derived from the record
// name, followed by fields at statically known offsets: little endian integers
// and 32 byte identifiers. Records are not self-describing; a change in layout
// changes the total length, so every known (record, total length) pair is
// registered as a named layout version in a Registry.
package encoding

import (
	"fmt"

	"github.com/sharely/questkit/ledger/common/hash"
)

// Layout versions. A record name has at most a handful of versions; each one
// is distinguished by its total byte length.
const (
	LayoutV1 = uint16(1)
	LayoutV2 = uint16(2)
)

// Kind is the discriminator namespace of a record.
type Kind uint8

const (
	// KindUnknown - unknown kind
	KindUnknown Kind = iota
	// KindAccount - account data, namespace "account"
	KindAccount
	// KindEvent - emitted event data, namespace "event"
	KindEvent
	// KindInstruction - instruction data, namespace "global"
	KindInstruction
)

var kindNames = [...]string{"unknown", "account", "event", "global"}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Discriminator is the 8 byte record prefix.
type Discriminator [hash.DiscriminatorLen]byte

// DiscriminatorLen is the size of a discriminator prefix.
const DiscriminatorLen = hash.DiscriminatorLen

// Record names of the program accounts.
const (
	QuestAccountName     = "QuestAccount"
	ClaimBitmapShardName = "ClaimBitmapShard"
)

// DiscriminatorFor returns the discriminator of the named record of the given kind.
func DiscriminatorFor(kind Kind, name string) Discriminator {
	return hash.Discriminator(kind.String(), name)
}

// EventDiscriminator returns the first 8 bytes of Hash("event:" + name).
func EventDiscriminator(name string) Discriminator {
	return DiscriminatorFor(KindEvent, name)
}

// AccountDiscriminator returns the first 8 bytes of Hash("account:" + name).
func AccountDiscriminator(name string) Discriminator {
	return DiscriminatorFor(KindAccount, name)
}

// InstructionDiscriminator returns the first 8 bytes of Hash("global:" + name).
func InstructionDiscriminator(name string) Discriminator {
	return DiscriminatorFor(KindInstruction, name)
}
