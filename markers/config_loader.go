package markers

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrUnknownGame is returned when a game id has no configuration.
var ErrUnknownGame = errors.New("unknown game")

// Config represents the full configuration file.
type Config struct {
	Games map[string]GameConfig `yaml:"games"`

	Markers     MarkerFilter   `yaml:"markers"`
	Properties  []string       `yaml:"properties"`
	Actions     []string       `yaml:"actions"`
	ParentLinks []string       `yaml:"parentLinks"`
	Overrides   []TypeOverride `yaml:"typeOverrides,omitempty"`

	// MaxParentDepth bounds the parent chain walk of the transform resolver.
	MaxParentDepth int `yaml:"maxParentDepth"`
	// MaxActorDepth bounds how far actor references are followed.
	MaxActorDepth int `yaml:"maxActorDepth"`

	Terrain    TerrainConfig    `yaml:"terrain"`
	Trajectory TrajectoryConfig `yaml:"trajectory"`
	Pairing    PairingConfig    `yaml:"pairing"`
	Pipes      PipeConfig       `yaml:"pipes"`
	Cluster    ClusterConfig    `yaml:"cluster"`
	Legacy     LegacyConfig     `yaml:"legacy"`
	Export     ExportConfig     `yaml:"export"`
	Log        LogConfig        `yaml:"log"`
}

// GameConfig holds per-game source settings.
type GameConfig struct {
	CacheDir  string         `yaml:"cacheDir"`
	Maps      []string       `yaml:"maps"`
	LegacyDir string         `yaml:"legacyDir,omitempty"`
	MapURL    string         `yaml:"mapURL,omitempty"`
	Overrides []TypeOverride `yaml:"typeOverrides,omitempty"`
}

// MarkerFilter is the marker type allow-list.
type MarkerFilter struct {
	Types      []string `yaml:"types"`
	StartsWith []string `yaml:"startsWith"`
	EndsWith   []string `yaml:"endsWith"`
	Names      []string `yaml:"names,omitempty"`
}

// TypeOverride corrects the type of objects whose dump type is misleading.
// Every non-empty criterion must match.
type TypeOverride struct {
	Type  string   `yaml:"type,omitempty"`
	Mesh  string   `yaml:"mesh,omitempty"`
	Names []string `yaml:"names,omitempty"`
	To    string   `yaml:"to"`
}

// TerrainConfig selects which markers sample the terrain surface.
type TerrainConfig struct {
	ExcludeTypes    []string `yaml:"excludeTypes"`
	ExcludePrefixes []string `yaml:"excludePrefixes"`
}

// TrajectoryConfig holds the jump pad simulation constants.
type TrajectoryConfig struct {
	PadTypes        []string `yaml:"padTypes"`
	TimeStep        float64  `yaml:"timeStep"`
	Gravity         float64  `yaml:"gravity"`
	Mass            float64  `yaml:"mass"`
	DefaultVelocity float64  `yaml:"defaultVelocity"`
	MinTravel       float64  `yaml:"minTravel"`
	MaxTime         float64  `yaml:"maxTime"`
}

// PairingConfig holds the two-way jump pad thresholds. They are empirical.
type PairingConfig struct {
	VerticalDot float64 `yaml:"verticalDot"`
	OppositeDot float64 `yaml:"oppositeDot"`
	AlignDot    float64 `yaml:"alignDot"`
	TargetRatio float64 `yaml:"targetRatio"`
}

// PipeConfig configures the pipe linker.
type PipeConfig struct {
	PipeTypes []string `yaml:"pipeTypes"`
	CapTypes  []string `yaml:"capTypes"`
	CapRadius float64  `yaml:"capRadius"`
}

// ClusterConfig configures coin aggregation.
type ClusterConfig struct {
	Types            []string `yaml:"types"`
	RotatingProperty string   `yaml:"rotatingProperty"`
	Distance         float64  `yaml:"distance"`
	MinMembers       int      `yaml:"minMembers"`
	StackType        string   `yaml:"stackType"`
}

// LegacyConfig configures reconciliation against the legacy dataset.
type LegacyConfig struct {
	Suspicious float64       `yaml:"suspicious"`
	Zoom       int           `yaml:"zoom"`
	Groups     []LegacyGroup `yaml:"groups"`
}

// LegacyGroup ties a legacy category file to the class layers it describes.
type LegacyGroup struct {
	Name   string   `yaml:"name"`
	File   string   `yaml:"file"`
	Layers []string `yaml:"layers"`
}

// ExportConfig restricts which marker fields are written.
type ExportConfig struct {
	Fields []string `yaml:"fields"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DefaultConfig returns the built-in configuration for the three games.
func DefaultConfig() *Config {
	return &Config{
		Games: map[string]GameConfig{
			"sl": {
				CacheDir: "cache",
				Maps:     []string{"Map"},
				Overrides: []TypeOverride{{
					Names: []string{"RingRusty10", "RingRusty11", "RingRusty12", "RingRusty13", "RingRusty14", "RingRusty15", "RingRusty16"},
					To:    "Purchase_StonePickaxe_C",
				}},
			},
			"slc": {
				CacheDir: "cache",
				Maps:     []string{"Crash"},
			},
			"siu": {
				CacheDir: "cache",
				Maps: []string{
					"DLC2_Complete", "DLC2_FinalBoss", "DLC2_Area0", "DLC2_SecretLavaArea",
					"DLC2_PostRainbow", "DLC2_Area0_Below", "DLC2_RainbowTown",
					"DLC2_Menu_Splash", "DLC2_Splash", "DLC2_Menu",
				},
			},
		},
		Markers: MarkerFilter{
			Types: []string{
				"PlayerStart", "Jumppad_C", "Bones_C", "Chest_C", "BarrelColor_C", "BarrelRed_C", "Battery_C",
				"BP_A3_StrengthQuest_C", "Lift1_C", "DeadHero_C", "ExplodingBattery_C", "GoldBlock_C",
				"GoldNugget_C", "Jumppillow_C", "MoonTake_C", "Plumbus_C", "Stone_C", "ValveCarriable_C",
				"ValveSlot_C", "Valve_C", "MatchBox_C", "Shell_C", "BarrelClosed_Blueprint_C", "MetalBall_C",
				"Supraball_C", "Key_C", "KeyLock_C", "KeycardColor_C", "PipeCap_C", "Sponge_C", "Juicer_C", "Seed_C",
				"Anvil_C", "Map_C", "NomNomFlies_C", "CarrotPhysical_C", "RingColorer_C", "RespawnActor_C",
				"CarryStones_Heavy_C", "CarryStones_C", "Crystal_C", "RingRusty_C",
				"Scrap_C", "TalkingSpeaker_C", "Sponge_Large_C",
				"HealingStation_C", "BP_EngagementCup_Base_C", "SlumBurningQuest_C", "Trash_C",
			},
			StartsWith: []string{
				"Pipesystem", "Buy", "BP_Buy", "BP_Purchase", "BP_Unlock", "Purchase", "Upgrade", "Button",
				"Smallbutton", "Coin", "Lighttrigger", "LotsOfCoins", "EnemySpawn", "Destroyable", "BP_Pickaxe",
				"Door", "Key", "ProjectileShooter", "MinecraftBrick",
			},
			EndsWith: []string{
				"Chest_C", "Button_C", "Lever_C", "Meat_C", "Loot_C", "Detector_C", "Door_C", "Flower_C",
				"Coin_C", "Guy_C", "TriggerVolume_C",
			},
		},
		Properties: defaultPropertyNames(),
		Actions: []string{
			"OpenWhenTake", "Actor", "Actors", "ActivateActors", "Actor To Move", "More Actors to Turn On",
			"ActorsToActivate", "Actors to Open", "Actors To Enable/Disable", "ObjectsToInvert", "ActivateThese",
			"Actors to Activate", "ActorsToOpen", "ObjectsToDestroy", "OpenOnDestroy", "ActorsToOpenOnOpen",
			"PostTownCelebration_Open", "ActionsOnOpen", "openWhenPlayerEnters", "UniqueActorBeginOverlap",
			"Objects",
		},
		ParentLinks: []string{"RootObject", "RootComponent", "DefaultSceneRoot", "AttachParent"},
		Overrides: []TypeOverride{
			{Type: "MetalBall_C", Mesh: "Anvil", To: "Anvil_C"},
		},
		MaxParentDepth: 64,
		MaxActorDepth:  6,
		Terrain: TerrainConfig{
			ExcludeTypes:    []string{"Lift1_C", "MetalBall_C", "Supraball_C", "ProjectileShooter_C"},
			ExcludePrefixes: []string{"Coin", "LotsOfCoins"},
		},
		Trajectory: TrajectoryConfig{
			PadTypes:        []string{"Jumppad_C"},
			TimeStep:        0.01,
			Gravity:         9.8,
			Mass:            95,
			DefaultVelocity: 1000,
			MinTravel:       250,
			MaxTime:         20,
		},
		Pairing: PairingConfig{
			VerticalDot: 0.99,
			OppositeDot: 0.98,
			AlignDot:    0.97,
			TargetRatio: 0.3,
		},
		Pipes: PipeConfig{
			PipeTypes: []string{"PipesystemNew_C", "PipesystemNewDLC_C"},
			CapTypes:  []string{"PipeCap_C"},
			CapRadius: 1500,
		},
		Cluster: ClusterConfig{
			Types:            []string{"Coin_C"},
			RotatingProperty: "IsRotating",
			Distance:         400,
			MinMembers:       4,
			StackType:        "_CoinStack_C",
		},
		Legacy: LegacyConfig{
			Suspicious: 250,
			Zoom:       4,
			Groups: []LegacyGroup{
				{Name: "chests", File: "chests.csv", Layers: []string{"closedChest", "openChest", "chests"}},
				{Name: "collectables", File: "collectables.csv", Layers: []string{"collectables", "upgrades", "coins"}},
				{Name: "shops", File: "shops.csv", Layers: []string{"shop", "shops"}},
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig loads the configuration from a YAML file on top of DefaultConfig.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, config.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	defaults := maps.Clone(config.Games)
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := mergeGames(data, config, defaults); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeGames decodes each games.<id> entry of data on top of that game's
// defaults. A plain decode starts every listed game from zero and would drop
// the keys the file leaves out.
func mergeGames(data []byte, config *Config, defaults map[string]GameConfig) error {
	var raw struct {
		Games map[string]yaml.Node `yaml:"games"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config YAML: %w", err)
	}
	for id, node := range raw.Games {
		g := defaults[id]
		if err := node.Decode(&g); err != nil {
			return fmt.Errorf("parsing games.%s: %w", id, err)
		}
		config.Games[id] = g
	}
	return nil
}

// WriteConfig writes the configuration as YAML.
func WriteConfig(w io.Writer, config *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return fmt.Errorf("encoding config YAML: %w", err)
	}
	return enc.Close()
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if err := WriteConfig(f, config); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if len(c.Games) == 0 {
		return fmt.Errorf("at least one game must be defined")
	}
	for _, id := range c.GameIDs() {
		g := c.Games[id]
		if len(g.Maps) == 0 {
			return fmt.Errorf("games.%s.maps must not be empty", id)
		}
	}
	if c.Trajectory.TimeStep <= 0 {
		return fmt.Errorf("trajectory.timeStep must be positive")
	}
	if c.Trajectory.MaxTime <= 0 {
		return fmt.Errorf("trajectory.maxTime must be positive")
	}
	if c.Cluster.Distance < 0 {
		return fmt.Errorf("cluster.distance must not be negative")
	}
	if c.Cluster.MinMembers < 2 {
		return fmt.Errorf("cluster.minMembers must be at least 2")
	}
	if c.MaxParentDepth <= 0 {
		return fmt.Errorf("maxParentDepth must be positive")
	}
	return nil
}

// Game returns the configuration for one game.
func (c *Config) Game(id string) (GameConfig, error) {
	g, ok := c.Games[id]
	if !ok {
		return GameConfig{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownGame, id, c.GameIDs())
	}
	return g, nil
}

// GameIDs returns the configured game ids in sorted order.
func (c *Config) GameIDs() []string {
	ids := make([]string, 0, len(c.Games))
	for id := range c.Games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TypeOverrides returns the global overrides followed by the game's own.
func (c *Config) TypeOverrides(game GameConfig) []TypeOverride {
	out := make([]TypeOverride, 0, len(c.Overrides)+len(game.Overrides))
	out = append(out, c.Overrides...)
	return append(out, game.Overrides...)
}
