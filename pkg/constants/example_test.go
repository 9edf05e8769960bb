package constants_test

import (
	"fmt"

	"github.com/agentstation/stonemap/pkg/constants"
)

func Example_thresholds() {
	fmt.Printf("near-certain: %.0f m\n", constants.NearCertainMeters)
	fmt.Printf("corroborated: %.0f m\n", constants.CorroboratedMeters)
	fmt.Printf("name similarity > %.1f\n", constants.NameSimilarityThreshold)
	// Output:
	// near-certain: 50 m
	// corroborated: 500 m
	// name similarity > 0.5
}
