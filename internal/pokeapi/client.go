// Package pokeapi bootstraps the local reference dataset from the public
// PokéAPI. Records are fetched once, flattened into the shapes the game
// reads, and stored as YAML for offline use.
package pokeapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tdmalone/slackemon-sub000/internal/data"
)

const BaseURL = "https://pokeapi.co"

type Client struct {
	client  *http.Client
	dataDir string
	force   bool
}

func NewClient(dataDir string, force bool) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		dataDir: dataDir,
		force:   force,
	}
}

type APIListResponse struct {
	Count   int `json:"count"`
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

// FetchList enumerates an API resource ("pokemon", "move", "type").
func (c *Client) FetchList(endpoint string, limit int) (*APIListResponse, error) {
	url := fmt.Sprintf("%s/api/v2/%s?limit=%d", BaseURL, endpoint, limit)
	var list APIListResponse
	if err := c.getJSON(url, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) getJSON(url string, target interface{}) error {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// apiPokemon is the subset of the /pokemon payload the game needs.
type apiPokemon struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	BaseExperience int    `json:"base_experience"`
	Stats          []struct {
		BaseStat int `json:"base_stat"`
		Effort   int `json:"effort"`
		Stat     struct {
			Name string `json:"name"`
		} `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int `json:"slot"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"types"`
	Moves []struct {
		Move struct {
			Name string `json:"name"`
		} `json:"move"`
	} `json:"moves"`
}

type apiSpecies struct {
	GrowthRate struct {
		Name string `json:"name"`
	} `json:"growth_rate"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

type apiChainLink struct {
	Species struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"species"`
	EvolutionDetails []struct {
		MinLevel *int `json:"min_level"`
	} `json:"evolution_details"`
	EvolvesTo []apiChainLink `json:"evolves_to"`
}

type apiChain struct {
	Chain apiChainLink `json:"chain"`
}

// FetchSpecies assembles one full species record: base payload, growth
// curve, and the next step of its evolution chain.
func (c *Client) FetchSpecies(name string) (*data.Species, error) {
	var pk apiPokemon
	if err := c.getJSON(fmt.Sprintf("%s/api/v2/pokemon/%s", BaseURL, name), &pk); err != nil {
		return nil, err
	}
	var sp apiSpecies
	if err := c.getJSON(fmt.Sprintf("%s/api/v2/pokemon-species/%s", BaseURL, name), &sp); err != nil {
		return nil, err
	}

	species := &data.Species{
		ID:             pk.ID,
		Index:          pk.Name,
		Name:           title(pk.Name),
		BaseExperience: pk.BaseExperience,
		GrowthRate:     sp.GrowthRate.Name,
	}
	for _, t := range pk.Types {
		species.Types = append(species.Types, t.Type.Name)
	}
	for _, s := range pk.Stats {
		species.Stats = append(species.Stats, data.StatLine{
			Name:   s.Stat.Name,
			Base:   s.BaseStat,
			Effort: s.Effort,
		})
	}
	for _, m := range pk.Moves {
		species.Moves = append(species.Moves, m.Move.Name)
	}

	if sp.EvolutionChain.URL != "" {
		var chain apiChain
		if err := c.getJSON(sp.EvolutionChain.URL, &chain); err == nil {
			species.Evolutions = nextEvolutions(&chain.Chain, pk.Name)
		}
	}
	return species, nil
}

// nextEvolutions walks the chain to the named species and returns its
// immediate evolutions.
func nextEvolutions(link *apiChainLink, name string) []data.Evolution {
	if link.Species.Name == name {
		var out []data.Evolution
		for _, next := range link.EvolvesTo {
			evo := data.Evolution{
				To:   next.Species.Name,
				ToID: idFromURL(next.Species.URL),
			}
			for _, d := range next.EvolutionDetails {
				if d.MinLevel != nil {
					evo.MinLevel = *d.MinLevel
				}
			}
			out = append(out, evo)
		}
		return out
	}
	for i := range link.EvolvesTo {
		if found := nextEvolutions(&link.EvolvesTo[i], name); found != nil {
			return found
		}
	}
	return nil
}

// idFromURL extracts the trailing numeric id from an API resource URL
// like /api/v2/pokemon-species/17/.
func idFromURL(url string) int {
	parts := strings.Split(strings.Trim(url, "/"), "/")
	if len(parts) == 0 {
		return 0
	}
	id := 0
	fmt.Sscanf(parts[len(parts)-1], "%d", &id)
	return id
}

type apiMove struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Power       int    `json:"power"`
	PP          int    `json:"pp"`
	Type        struct{ Name string } `json:"type"`
	DamageClass struct{ Name string } `json:"damage_class"`
	Meta        *struct {
		Drain   int `json:"drain"`
		Healing int `json:"healing"`
	} `json:"meta"`
}

// FetchMove assembles one move record.
func (c *Client) FetchMove(name string) (*data.Move, error) {
	var mv apiMove
	if err := c.getJSON(fmt.Sprintf("%s/api/v2/move/%s", BaseURL, name), &mv); err != nil {
		return nil, err
	}
	move := &data.Move{
		ID:          mv.ID,
		Index:       mv.Name,
		Name:        title(mv.Name),
		Power:       mv.Power,
		PP:          mv.PP,
		Type:        mv.Type.Name,
		DamageClass: mv.DamageClass.Name,
	}
	if mv.Meta != nil {
		move.Meta.Drain = mv.Meta.Drain
		move.Meta.Healing = mv.Meta.Healing
	}
	return move, nil
}

type apiType struct {
	DamageRelations struct {
		NoDamageTo     []struct{ Name string } `json:"no_damage_to"`
		HalfDamageTo   []struct{ Name string } `json:"half_damage_to"`
		DoubleDamageTo []struct{ Name string } `json:"double_damage_to"`
	} `json:"damage_relations"`
}

// FetchType assembles one attacking-type relations record.
func (c *Client) FetchType(name string) (*data.TypeRelations, error) {
	var t apiType
	if err := c.getJSON(fmt.Sprintf("%s/api/v2/type/%s", BaseURL, name), &t); err != nil {
		return nil, err
	}
	rel := &data.TypeRelations{Index: name}
	for _, n := range t.DamageRelations.NoDamageTo {
		rel.NoDamageTo = append(rel.NoDamageTo, n.Name)
	}
	for _, n := range t.DamageRelations.HalfDamageTo {
		rel.HalfDamageTo = append(rel.HalfDamageTo, n.Name)
	}
	for _, n := range t.DamageRelations.DoubleDamageTo {
		rel.DoubleDamageTo = append(rel.DoubleDamageTo, n.Name)
	}
	return rel, nil
}

// Exists reports whether a record has already been downloaded; used to
// skip work unless --force is set.
func (c *Client) Exists(kind, index string) bool {
	if c.force {
		return false
	}
	_, err := os.Stat(filepath.Join(c.dataDir, kind, index+".yaml"))
	return err == nil
}

// SaveItem writes one record to <dataDir>/<kind>/<index>.yaml.
func (c *Client) SaveItem(kind, index string, record interface{}) error {
	localPath := filepath.Join(c.dataDir, kind, index+".yaml")
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return err
	}

	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	return encoder.Encode(record)
}

// Throttle paces requests to respect the public API.
func (c *Client) Throttle() {
	time.Sleep(100 * time.Millisecond)
}

// PageCount returns how many list pages of the given size cover n items.
func PageCount(n, pageSize int) int {
	return int(math.Ceil(float64(n) / float64(pageSize)))
}

func title(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
