package engine

import "stationgate/internal/models"

// Legal state transitions. Anything absent here fails with
// InvalidStateError before any write.

var pcTransitions = map[models.PCStatus][]models.PCStatus{
	models.PCOffline:     {models.PCPending, models.PCMaintenance},
	models.PCPending:     {models.PCOnline, models.PCOffline},
	models.PCOnline:      {models.PCOffline, models.PCMaintenance},
	models.PCMaintenance: {models.PCOffline},
}

func pcCanMove(from, to models.PCStatus) bool {
	for _, s := range pcTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var sessionTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionPending: {models.SessionActive, models.SessionRejected},
	models.SessionActive:  {models.SessionEnded},
}

func sessionCanMove(from, to models.SessionStatus) bool {
	for _, s := range sessionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var detectedIPTransitions = map[models.DetectedIPStatus][]models.DetectedIPStatus{
	models.DetectedIPPending:    {models.DetectedIPApproved, models.DetectedIPRegistered, models.DetectedIPIgnored},
	models.DetectedIPApproved:   {models.DetectedIPRegistered},
	models.DetectedIPRegistered: {models.DetectedIPPending},
}

func detectedIPCanMove(from, to models.DetectedIPStatus) bool {
	for _, s := range detectedIPTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var tokenTransitions = map[models.DeviceTokenStatus][]models.DeviceTokenStatus{
	models.TokenPending:  {models.TokenApproved, models.TokenRejected},
	models.TokenApproved: {models.TokenRejected},
}

func tokenCanMove(from, to models.DeviceTokenStatus) bool {
	for _, s := range tokenTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
