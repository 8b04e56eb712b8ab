package bettingdomain

import (
	"testing"

	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/stretchr/testify/assert"
)

func TestCheckAdmission(t *testing.T) {
	quali := sharedtypes.NewPodium("VER", "NOR", "LEC")
	partialQuali := sharedtypes.Podium{P1: "VER", P2: "NOR"}

	tests := []struct {
		name       string
		prediction sharedtypes.Podium
		qualifying *sharedtypes.Podium
		occupancy  Occupancy
		want       error
	}{
		{
			name:       "admissible",
			prediction: sharedtypes.NewPodium("HAM", "VER", "LEC"),
			qualifying: &quali,
		},
		{
			name:       "repeated driver",
			prediction: sharedtypes.NewPodium("HAM", "HAM", "LEC"),
			want:       ErrDuplicateDriverInBet,
		},
		{
			name:       "missing driver",
			prediction: sharedtypes.Podium{P1: "HAM", P2: "VER"},
			want:       ErrDuplicateDriverInBet,
		},
		{
			name:       "copies qualifying",
			prediction: sharedtypes.NewPodium("VER", "NOR", "LEC"),
			qualifying: &quali,
			want:       ErrMatchesQualifying,
		},
		{
			name:       "same drivers as qualifying in another order",
			prediction: sharedtypes.NewPodium("NOR", "VER", "LEC"),
			qualifying: &quali,
		},
		{
			name:       "incomplete qualifying is ignored",
			prediction: sharedtypes.Podium{P1: "VER", P2: "NOR", P3: "LEC"},
			qualifying: &partialQuali,
		},
		{
			name:       "user already bet",
			prediction: sharedtypes.NewPodium("HAM", "VER", "LEC"),
			occupancy:  Occupancy{UserHasBet: true, CombinationTaken: true},
			want:       ErrDuplicateUserBet,
		},
		{
			name:       "combination taken",
			prediction: sharedtypes.NewPodium("HAM", "VER", "LEC"),
			occupancy:  Occupancy{CombinationTaken: true},
			want:       ErrCombinationTaken,
		},
		{
			name:       "duplicate driver wins over occupancy",
			prediction: sharedtypes.NewPodium("HAM", "VER", "HAM"),
			occupancy:  Occupancy{UserHasBet: true},
			want:       ErrDuplicateDriverInBet,
		},
		{
			name:       "qualifying copy wins over occupancy",
			prediction: quali,
			qualifying: &quali,
			occupancy:  Occupancy{UserHasBet: true},
			want:       ErrMatchesQualifying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAdmission(tt.prediction, tt.qualifying, tt.occupancy)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
