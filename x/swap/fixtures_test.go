package swap

import (
	"testing"

	"github.com/lockhaven/swapcore"
	"github.com/lockhaven/swapcore/hashlock"
	"github.com/lockhaven/swapcore/timelock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testCreatedAt = swapcore.UnixTime(1700000000)

var (
	alice = Party("alice") // initiator
	bob   = Party("bob")   // taker
	carol = Party("carol") // whitelisted resolver
	dave  = Party("dave")  // anyone else

	testStages = timelock.StageDurations{
		FinalityDelay:   60,
		TakerExclusive:  120,
		PrivateResolver: 300,
		PublicResolver:  600,
		Cancellation:    900,
	}

	testPolicy = timelock.Policy{
		MinMargin:   300,
		MinDuration: 600,
		MaxDuration: 7200,
	}
)

func testSecret() []byte {
	secret := make([]byte, hashlock.SecretSize)
	for i := range secret {
		secret[i] = byte(i + 1)
	}
	return secret
}

// testOrder returns a valid pending order created at testCreatedAt. The
// source leg uses SHA-256, the destination leg Keccak-256, both committing
// to testSecret. The destination timelock expires at +1500, the source at
// +3000.
func testOrder(t testing.TB) *Order {
	t.Helper()

	secret := testSecret()
	srcLock, err := hashlock.New(secret, hashlock.SHA256)
	require.NoError(t, err)
	dstLock, err := hashlock.New(secret, hashlock.Keccak256)
	require.NoError(t, err)
	canonical, err := hashlock.Commit(secret, hashlock.SHA256)
	require.NoError(t, err)

	schedule, err := timelock.NewSchedule(testCreatedAt, testStages)
	require.NoError(t, err)

	o := &Order{
		ID:           "order-1",
		Initiator:    alice,
		Counterparty: bob,
		Source: Leg{
			ChainID:  "near-mainnet",
			Asset:    "NEAR",
			Amount:   decimal.NewFromInt(10),
			Sender:   alice,
			Receiver: bob,
			Hashlock: srcLock,
			Timelock: testCreatedAt + 3000,
		},
		Destination: Leg{
			ChainID:       "eth-mainnet",
			Asset:         "ETH",
			Amount:        decimal.NewFromInt(1),
			Sender:        bob,
			Receiver:      alice,
			Hashlock:      dstLock,
			Timelock:      testCreatedAt + 1500,
			SafetyDeposit: decimal.NewFromInt(1),
		},
		SecretHash:       canonical,
		Status:           StatusPending,
		AllowedResolvers: []Party{carol},
		Schedule:         schedule,
		Timelocks:        testPolicy,
		CreatedAt:        testCreatedAt,
	}
	require.NoError(t, o.Validate())
	return o
}

// lockBothLegs drives the order to StatusDestinationLocked.
func lockBothLegs(t testing.TB, o *Order) {
	t.Helper()
	_, err := o.applyLegLocked(LegSource, "src-tx", o.Timelocks)
	require.NoError(t, err)
	_, err = o.applyLegLocked(LegDestination, "dst-tx", o.Timelocks)
	require.NoError(t, err)
}
