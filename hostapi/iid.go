package hostapi

import (
	"fmt"

	"github.com/google/uuid"
)

// IID is a 16-byte interface identifier.
type IID = uuid.UUID

// ClassID is a 16-byte format class identifier.
type ClassID = uuid.UUID

// Interface identifiers recognized by plugin objects and their callbacks.
var (
	// IIDUnknown is the base identity interface.
	IIDUnknown = uuid.MustParse("00000000-0000-0000-C000-000000000046")

	// IIDInArchive is the read interface of a plugin object.
	IIDInArchive = uuid.MustParse("23170F69-40C1-278A-0000-000600600000")

	// IIDOutArchive is the write interface of a plugin object.
	IIDOutArchive = uuid.MustParse("23170F69-40C1-278A-0000-000600A00000")

	// IIDCryptoGetTextPassword is the decryption-password capability a
	// callback object may expose.
	IIDCryptoGetTextPassword = uuid.MustParse("23170F69-40C1-278A-0000-000500100000")

	// IIDCryptoGetTextPassword2 is the encryption-password capability an
	// update callback may expose.
	IIDCryptoGetTextPassword2 = uuid.MustParse("23170F69-40C1-278A-0000-000500110000")
)

// FormatClassID derives a class identifier from a single format ID byte,
// following the host's numbering convention for format handlers.
func FormatClassID(id byte) ClassID {
	return uuid.MustParse(fmt.Sprintf("23170F69-40C1-278A-1000-000110%02X0000", id))
}
