package testdocs

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults cross-checks job outcomes against the profile each
// document was generated from.
func verifyResults(ctx context.Context, config *Config, outcomes []outcome, stats *Stats) error {
	log.Println("verifying results...")

	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes to verify")
	}

	valid := 0
	eligible := 0
	mismatches := 0
	byProfile := map[string][2]int{} // profile -> [total, surprising]

	for _, o := range outcomes {
		if o.job.Report != nil {
			if o.job.Report.DocumentValid {
				valid++
			}
			if o.job.Report.Eligible {
				eligible++
			}
		}

		surprising := isSurprising(o)
		counts := byProfile[o.doc.Profile]
		counts[0]++
		if surprising {
			counts[1]++
			mismatches++
			if config.Verbose {
				log.Printf("unexpected outcome for %s (%s): status=%s report=%+v",
					o.doc.RequestID, o.doc.Profile, o.job.Status, o.job.Report)
			}
		}
		byProfile[o.doc.Profile] = counts
	}

	stats.DocumentsValid = valid
	stats.Eligible = eligible

	displayProfileBreakdown(byProfile)

	if mismatches > 0 {
		log.Printf("result verification finished with %d unexpected outcomes", mismatches)
	} else {
		log.Println("result verification completed, all outcomes matched their profiles")
	}
	return nil
}

// isSurprising reports whether a job outcome contradicts the profile the
// document was generated from.
func isSurprising(o outcome) bool {
	if o.job.Status != "done" || o.job.Report == nil {
		// Text-only submissions should never fail outright.
		return true
	}
	r := o.job.Report

	switch o.doc.Profile {
	case "valid":
		return !r.MRZValid || !r.DocumentValid
	case "idcard":
		return !r.MRZValid
	case "expired":
		return r.DocumentValid
	case "corrupted":
		return r.MRZValid
	case "underage", "blocked":
		return r.Eligible
	case "short_validity":
		return r.Eligible
	case "mismatch":
		return r.DocumentValid && r.Eligible
	case "freetext":
		// Heuristic extraction carries no MRZ guarantee; any completed
		// report is acceptable.
		return false
	default:
		return false
	}
}

// displayProfileBreakdown prints outcome counts per generation profile.
func displayProfileBreakdown(byProfile map[string][2]int) {
	profiles := make([]string, 0, len(byProfile))
	for p := range byProfile {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)

	log.Println("outcomes by profile:")
	for _, p := range profiles {
		counts := byProfile[p]
		log.Printf("   %-15s total: %d, unexpected: %d", p, counts[0], counts[1])
	}
}
