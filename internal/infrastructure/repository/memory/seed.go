package memory

import "github.com/riskibarqy/esports-fantasy/internal/domain/role"

const VideoGameLeagueOfLegends int64 = 1

// SeedRoles mirrors the roles migration so memory storage resolves provider labels the same way.
func SeedRoles() []role.Role {
	return []role.Role{
		{ID: 1, VideoGameID: VideoGameLeagueOfLegends, Name: "Top", ShortName: "TOP"},
		{ID: 2, VideoGameID: VideoGameLeagueOfLegends, Name: "Jungle", ShortName: "JNG"},
		{ID: 3, VideoGameID: VideoGameLeagueOfLegends, Name: "Mid", ShortName: "MID"},
		{ID: 4, VideoGameID: VideoGameLeagueOfLegends, Name: "Bot", ShortName: "ADC"},
		{ID: 5, VideoGameID: VideoGameLeagueOfLegends, Name: "Support", ShortName: "SUP"},
	}
}
